package match

import (
	"fmt"
	"time"
)

// Match is one scheduled or live fixture tracked for stream crawling.
type Match struct {
	ID             int64
	LeagueID       int64
	Team1          string
	Team2          string
	SourceLink     string
	ScheduledStart time.Time
	ExpectedEnd    *time.Time
	LiveAt         *time.Time
	LiveEnd        *time.Time
	Description    string
	IsLive         bool
	IsCrawling     bool
	CrawlStartedAt *time.Time
	LastCrawlTime  *time.Time
	CreatedAt      time.Time
}

func (m Match) Validate() error {
	if m.LeagueID <= 0 {
		return fmt.Errorf("match league id is required")
	}
	if m.Team1 == "" {
		return fmt.Errorf("match team1 is required")
	}
	if m.SourceLink == "" {
		return fmt.Errorf("match source link is required")
	}
	if m.ScheduledStart.IsZero() {
		return fmt.Errorf("match scheduled start is required")
	}

	return nil
}

// LiveWithin reports whether the match is live at the given instant. The
// time windows are authoritative; the stored IsLive flag is only a cached
// projection of this predicate.
func (m Match) LiveWithin(now time.Time) bool {
	if !now.Before(m.ScheduledStart) {
		if m.ExpectedEnd == nil || now.Before(*m.ExpectedEnd) {
			return true
		}
	}
	if m.LiveAt != nil && m.LiveEnd != nil {
		if !now.Before(*m.LiveAt) && now.Before(*m.LiveEnd) {
			return true
		}
	}

	return false
}

// DedupKey identifies a fixture independently of its row id. Two raw
// records mapping to the same key describe the same match.
type DedupKey struct {
	LeagueID       int64
	Team1          string
	SourceLink     string
	ScheduledStart int64
	Description    string
}

func (m Match) DedupKey() DedupKey {
	return DedupKey{
		LeagueID:       m.LeagueID,
		Team1:          m.Team1,
		SourceLink:     m.SourceLink,
		ScheduledStart: m.ScheduledStart.UTC().Unix(),
		Description:    m.Description,
	}
}
