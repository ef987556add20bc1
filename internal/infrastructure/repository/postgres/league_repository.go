package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/enkhjin/sportstream/internal/domain/league"
	qb "github.com/enkhjin/sportstream/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").Where(qb.Eq("id", leagueID)).ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("select league id=%d: %w", leagueID, err)
	}

	return row.toDomain(), true, nil
}

func (r *LeagueRepository) GetByName(ctx context.Context, name string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").Where(qb.Eq("name", name)).ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league by name query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("select league name=%s: %w", name, err)
	}

	return row.toDomain(), true, nil
}

func (r *LeagueRepository) Upsert(ctx context.Context, l league.League) (league.League, error) {
	if err := l.Validate(); err != nil {
		return league.League{}, err
	}

	query, args, err := qb.InsertModel("leagues", leagueInsertModel{
		Name:      l.Name,
		SourceURL: l.SourceURL,
	}, `ON CONFLICT (name)
DO UPDATE SET source_url = EXCLUDED.source_url
RETURNING id, name, source_url, created_at`)
	if err != nil {
		return league.League{}, fmt.Errorf("build upsert league query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return league.League{}, fmt.Errorf("upsert league name=%s: %w", l.Name, err)
	}

	return row.toDomain(), nil
}
