package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/enkhjin/sportstream/internal/domain/match"
	qb "github.com/enkhjin/sportstream/internal/platform/querybuilder"
	"github.com/enkhjin/sportstream/internal/usecase"
)

// liveWindowExpr is the SQL form of match.LiveWithin. The stored is_live
// flag is deliberately not part of it.
const liveWindowExpr = "((scheduled_start <= ? AND (expected_end IS NULL OR expected_end > ?)) " +
	"OR (live_at IS NOT NULL AND live_end IS NOT NULL AND live_at <= ? AND live_end > ?))"

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Insert(ctx context.Context, m match.Match) (match.Match, error) {
	if err := m.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	query, args, err := qb.InsertModel("matches", matchInsertModel{
		LeagueID:       m.LeagueID,
		Team1:          m.Team1,
		Team2:          m.Team2,
		SourceLink:     m.SourceLink,
		ScheduledStart: m.ScheduledStart.UTC(),
		ExpectedEnd:    m.ExpectedEnd,
		Description:    m.Description,
		IsLive:         m.IsLive,
		IsCrawling:     false,
	}, "RETURNING *")
	if err != nil {
		return match.Match{}, fmt.Errorf("build insert match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return match.Match{}, fmt.Errorf("%w: match already exists", usecase.ErrConflict)
		}
		return match.Match{}, fmt.Errorf("insert match league_id=%d team1=%s: %w", m.LeagueID, m.Team1, err)
	}

	return row.toDomain(), nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").Where(qb.Eq("id", matchID)).ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%d: %w", matchID, err)
	}

	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListAll(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").OrderBy("scheduled_start", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListUpcoming(ctx context.Context, now time.Time) ([]match.Match, error) {
	now = now.UTC()
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Gte("scheduled_start", now)).
		OrderBy("scheduled_start", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming matches: %w", err)
	}

	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListLive(ctx context.Context, now time.Time) ([]match.Match, error) {
	now = now.UTC()
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Expr(liveWindowExpr, now, now, now, now)).
		OrderBy("scheduled_start", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select live matches: %w", err)
	}

	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListByLeagueSince(ctx context.Context, leagueID int64, since time.Time) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("league_id", leagueID), qb.Gte("scheduled_start", since.UTC())).
		OrderBy("scheduled_start", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by league query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches league_id=%d: %w", leagueID, err)
	}

	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListStarted(ctx context.Context, before time.Time) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Lte("scheduled_start", before.UTC())).
		OrderBy("scheduled_start", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select started matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select started matches: %w", err)
	}

	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) (match.Match, bool, error) {
	if err := m.Validate(); err != nil {
		return match.Match{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	query, args, err := qb.Update("matches").
		Set("league_id", m.LeagueID).
		Set("team1", m.Team1).
		Set("team2", m.Team2).
		Set("source_link", m.SourceLink).
		Set("scheduled_start", m.ScheduledStart.UTC()).
		Set("expected_end", m.ExpectedEnd).
		Set("description", m.Description).
		Where(qb.Eq("id", m.ID)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build update match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		if isUniqueViolation(err) {
			return match.Match{}, false, fmt.Errorf("%w: match already exists", usecase.ErrConflict)
		}
		return match.Match{}, false, fmt.Errorf("update match id=%d: %w", m.ID, err)
	}

	return row.toDomain(), true, nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID int64) (bool, error) {
	query, args, err := qb.DeleteFrom("matches").Where(qb.Eq("id", matchID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete match query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete match id=%d: %w", matchID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete match id=%d rows affected: %w", matchID, err)
	}

	return affected > 0, nil
}

func (r *MatchRepository) IngestBatch(ctx context.Context, leagueID int64, rows []match.Match) (match.BatchResult, error) {
	if len(rows) == 0 {
		return match.BatchResult{}, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.BatchResult{}, fmt.Errorf("begin ingest batch league_id=%d: %w", leagueID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	var result match.BatchResult
	for _, m := range rows {
		m.LeagueID = leagueID
		observedLive := m.IsLive

		query, args, err := qb.InsertModel("matches", matchInsertModel{
			LeagueID:       m.LeagueID,
			Team1:          m.Team1,
			Team2:          m.Team2,
			SourceLink:     m.SourceLink,
			ScheduledStart: m.ScheduledStart.UTC(),
			ExpectedEnd:    m.ExpectedEnd,
			Description:    m.Description,
			IsLive:         false,
			IsCrawling:     false,
		}, `ON CONFLICT (league_id, team1, source_link, scheduled_start, description)
DO NOTHING
RETURNING id`)
		if err != nil {
			return match.BatchResult{}, fmt.Errorf("build ingest insert query: %w", err)
		}

		var insertedID int64
		err = tx.GetContext(ctx, &insertedID, query, args...)
		switch {
		case err == nil:
			result.Inserted++
			continue
		case isNotFound(err):
			result.Deduped++
		default:
			return match.BatchResult{}, fmt.Errorf("ingest insert league_id=%d team1=%s: %w", leagueID, m.Team1, err)
		}

		if !observedLive {
			continue
		}

		promoteQuery, promoteArgs, err := qb.Update("matches").
			Set("is_live", true).
			Set("live_at", now).
			Where(
				qb.Eq("league_id", m.LeagueID),
				qb.Eq("team1", m.Team1),
				qb.Eq("source_link", m.SourceLink),
				qb.Eq("scheduled_start", m.ScheduledStart.UTC()),
				qb.Eq("description", m.Description),
				qb.Eq("is_live", false),
			).
			ToSQL()
		if err != nil {
			return match.BatchResult{}, fmt.Errorf("build ingest promote query: %w", err)
		}

		res, err := tx.ExecContext(ctx, promoteQuery, promoteArgs...)
		if err != nil {
			return match.BatchResult{}, fmt.Errorf("ingest promote league_id=%d team1=%s: %w", leagueID, m.Team1, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return match.BatchResult{}, fmt.Errorf("ingest promote rows affected: %w", err)
		}
		result.PromotedLive += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return match.BatchResult{}, fmt.Errorf("commit ingest batch league_id=%d: %w", leagueID, err)
	}

	return result, nil
}

func (r *MatchRepository) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	query, args, err := qb.Update("matches").
		Set("is_live", true).
		Set("live_at", now).
		Where(qb.Lte("scheduled_start", now), qb.Eq("is_live", false)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build promote due query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("promote due matches: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote due rows affected: %w", err)
	}

	return int(affected), nil
}

func (r *MatchRepository) NextScheduledStart(ctx context.Context, after time.Time) (*time.Time, error) {
	query, args, err := qb.Select("MIN(scheduled_start)").From("matches").
		Where(qb.Expr("scheduled_start > ?", after.UTC()), qb.Eq("is_live", false)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build next scheduled start query: %w", err)
	}

	var next sql.NullTime
	if err := r.db.GetContext(ctx, &next, query, args...); err != nil {
		return nil, fmt.Errorf("select next scheduled start: %w", err)
	}
	if !next.Valid {
		return nil, nil
	}

	out := next.Time
	return &out, nil
}

func (r *MatchRepository) BeginCrawl(ctx context.Context, matchID int64, now time.Time, cooldown, staleLease time.Duration) (bool, error) {
	now = now.UTC()
	query, args, err := qb.Update("matches").
		Set("is_crawling", true).
		Set("crawl_started_at", now).
		Where(
			qb.Eq("id", matchID),
			qb.Expr("(is_crawling = false OR crawl_started_at IS NULL OR crawl_started_at <= ?)", now.Add(-staleLease)),
			qb.Expr("(last_crawl_time IS NULL OR last_crawl_time <= ?)", now.Add(-cooldown)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build begin crawl query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("begin crawl match_id=%d: %w", matchID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("begin crawl rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *MatchRepository) FinishCrawl(ctx context.Context, matchID int64, finishedAt time.Time) error {
	query, args, err := qb.Update("matches").
		Set("is_crawling", false).
		Set("crawl_started_at", nil).
		Set("last_crawl_time", finishedAt.UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish crawl query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish crawl match_id=%d: %w", matchID, err)
	}

	return nil
}
