package postgres

import (
	"time"

	"github.com/enkhjin/sportstream/internal/domain/match"
)

type matchTableModel struct {
	ID             int64      `db:"id"`
	LeagueID       int64      `db:"league_id"`
	Team1          string     `db:"team1"`
	Team2          string     `db:"team2"`
	SourceLink     string     `db:"source_link"`
	ScheduledStart time.Time  `db:"scheduled_start"`
	ExpectedEnd    *time.Time `db:"expected_end"`
	LiveAt         *time.Time `db:"live_at"`
	LiveEnd        *time.Time `db:"live_end"`
	Description    string     `db:"description"`
	IsLive         bool       `db:"is_live"`
	IsCrawling     bool       `db:"is_crawling"`
	CrawlStartedAt *time.Time `db:"crawl_started_at"`
	LastCrawlTime  *time.Time `db:"last_crawl_time"`
	CreatedAt      time.Time  `db:"created_at"`
}

type matchInsertModel struct {
	LeagueID       int64      `db:"league_id"`
	Team1          string     `db:"team1"`
	Team2          string     `db:"team2"`
	SourceLink     string     `db:"source_link"`
	ScheduledStart time.Time  `db:"scheduled_start"`
	ExpectedEnd    *time.Time `db:"expected_end"`
	Description    string     `db:"description"`
	IsLive         bool       `db:"is_live"`
	IsCrawling     bool       `db:"is_crawling"`
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:             m.ID,
		LeagueID:       m.LeagueID,
		Team1:          m.Team1,
		Team2:          m.Team2,
		SourceLink:     m.SourceLink,
		ScheduledStart: m.ScheduledStart,
		ExpectedEnd:    m.ExpectedEnd,
		LiveAt:         m.LiveAt,
		LiveEnd:        m.LiveEnd,
		Description:    m.Description,
		IsLive:         m.IsLive,
		IsCrawling:     m.IsCrawling,
		CrawlStartedAt: m.CrawlStartedAt,
		LastCrawlTime:  m.LastCrawlTime,
		CreatedAt:      m.CreatedAt,
	}
}

func matchRowsToDomain(rows []matchTableModel) []match.Match {
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
