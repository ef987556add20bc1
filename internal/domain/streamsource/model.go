package streamsource

import (
	"fmt"
	"time"
)

// StreamSource is one discovered watch-page link for a match, optionally
// resolved to a playable source URL.
type StreamSource struct {
	ID             int64
	MatchID        int64
	Link           string
	ResolvedSource string
	DiscoveredAt   time.Time
}

func (s StreamSource) Validate() error {
	if s.MatchID <= 0 {
		return fmt.Errorf("stream source match id is required")
	}
	if s.Link == "" {
		return fmt.Errorf("stream source link is required")
	}

	return nil
}
