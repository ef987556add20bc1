package postgres

import (
	"time"

	"github.com/enkhjin/sportstream/internal/domain/league"
)

type leagueTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	SourceURL string    `db:"source_url"`
	CreatedAt time.Time `db:"created_at"`
}

type leagueInsertModel struct {
	Name      string `db:"name"`
	SourceURL string `db:"source_url"`
}

func (m leagueTableModel) toDomain() league.League {
	return league.League{
		ID:        m.ID,
		Name:      m.Name,
		SourceURL: m.SourceURL,
		CreatedAt: m.CreatedAt,
	}
}
