package league

import (
	"fmt"
	"time"
)

// League is a competition whose listing page is crawled for fixtures.
type League struct {
	ID        int64
	Name      string
	SourceURL string
	CreatedAt time.Time
}

func (l League) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.SourceURL == "" {
		return fmt.Errorf("league source url is required")
	}

	return nil
}
