package postgres

import (
	"time"

	"github.com/enkhjin/sportstream/internal/domain/streamsource"
)

type streamSourceTableModel struct {
	ID             int64     `db:"id"`
	MatchID        int64     `db:"match_id"`
	Link           string    `db:"link"`
	ResolvedSource string    `db:"resolved_source"`
	DiscoveredAt   time.Time `db:"discovered_at"`
}

type streamSourceInsertModel struct {
	MatchID        int64  `db:"match_id"`
	Link           string `db:"link"`
	ResolvedSource string `db:"resolved_source"`
}

func (m streamSourceTableModel) toDomain() streamsource.StreamSource {
	return streamsource.StreamSource{
		ID:             m.ID,
		MatchID:        m.MatchID,
		Link:           m.Link,
		ResolvedSource: m.ResolvedSource,
		DiscoveredAt:   m.DiscoveredAt,
	}
}
