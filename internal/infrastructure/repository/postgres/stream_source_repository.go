package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	qb "github.com/enkhjin/sportstream/internal/platform/querybuilder"
	"github.com/enkhjin/sportstream/internal/usecase"
)

type StreamSourceRepository struct {
	db *sqlx.DB
}

func NewStreamSourceRepository(db *sqlx.DB) *StreamSourceRepository {
	return &StreamSourceRepository{db: db}
}

func (r *StreamSourceRepository) ListAll(ctx context.Context) ([]streamsource.StreamSource, error) {
	query, args, err := qb.Select("*").From("stream_sources").
		OrderBy("discovered_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select all stream sources query: %w", err)
	}

	var rows []streamSourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select all stream sources: %w", err)
	}

	out := make([]streamsource.StreamSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *StreamSourceRepository) ListByMatch(ctx context.Context, matchID int64) ([]streamsource.StreamSource, error) {
	query, args, err := qb.Select("*").From("stream_sources").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("discovered_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stream sources query: %w", err)
	}

	var rows []streamSourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stream sources match_id=%d: %w", matchID, err)
	}

	out := make([]streamsource.StreamSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *StreamSourceRepository) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("stream_sources").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count stream sources query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count stream sources match_id=%d: %w", matchID, err)
	}

	return count, nil
}

func (r *StreamSourceRepository) Insert(ctx context.Context, s streamsource.StreamSource) (streamsource.StreamSource, bool, error) {
	if err := s.Validate(); err != nil {
		return streamsource.StreamSource{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	query, args, err := qb.InsertModel("stream_sources", streamSourceInsertModel{
		MatchID:        s.MatchID,
		Link:           s.Link,
		ResolvedSource: s.ResolvedSource,
	}, `ON CONFLICT (match_id, link)
DO NOTHING
RETURNING *`)
	if err != nil {
		return streamsource.StreamSource{}, false, fmt.Errorf("build insert stream source query: %w", err)
	}

	var row streamSourceTableModel
	err = r.db.GetContext(ctx, &row, query, args...)
	if err == nil {
		return row.toDomain(), true, nil
	}
	if !isNotFound(err) {
		return streamsource.StreamSource{}, false, fmt.Errorf("insert stream source match_id=%d link=%s: %w", s.MatchID, s.Link, err)
	}

	// Conflict path: return the stored row for this (match, link).
	selectQuery, selectArgs, err := qb.Select("*").From("stream_sources").
		Where(qb.Eq("match_id", s.MatchID), qb.Eq("link", s.Link)).
		ToSQL()
	if err != nil {
		return streamsource.StreamSource{}, false, fmt.Errorf("build select stream source query: %w", err)
	}
	if err := r.db.GetContext(ctx, &row, selectQuery, selectArgs...); err != nil {
		return streamsource.StreamSource{}, false, fmt.Errorf("select stream source match_id=%d link=%s: %w", s.MatchID, s.Link, err)
	}

	return row.toDomain(), false, nil
}
