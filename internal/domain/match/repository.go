package match

import (
	"context"
	"time"
)

// BatchResult summarizes one league ingestion batch.
type BatchResult struct {
	Inserted     int
	PromotedLive int
	Deduped      int
}

// Repository describes match persistence needs from use cases.
//
// BeginCrawl and FinishCrawl implement the per-match crawl guard: BeginCrawl
// is one check-and-set that acquires the crawl slot only when no crawl is in
// flight (or the previous lease is older than staleLease) and the cooldown
// since the last crawl has elapsed. FinishCrawl releases the slot and stamps
// the last crawl time; it must run on every path after a successful
// BeginCrawl.
type Repository interface {
	Insert(ctx context.Context, m Match) (Match, error)
	GetByID(ctx context.Context, matchID int64) (Match, bool, error)
	ListAll(ctx context.Context) ([]Match, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]Match, error)
	ListLive(ctx context.Context, now time.Time) ([]Match, error)
	ListByLeagueSince(ctx context.Context, leagueID int64, since time.Time) ([]Match, error)
	// ListStarted returns matches whose scheduled start is at or before the
	// given instant. The garbage collector walks this set.
	ListStarted(ctx context.Context, before time.Time) ([]Match, error)
	// Update rewrites the identity and schedule fields of the row with
	// m.ID. Live and crawl bookkeeping columns are left alone; the bool
	// reports whether the row existed.
	Update(ctx context.Context, m Match) (Match, bool, error)
	Delete(ctx context.Context, matchID int64) (bool, error)

	// IngestBatch commits one league's fixture batch in a single
	// transaction: insert-if-absent on the dedup key, plus eager live
	// promotion for rows observed live at the source while stored not live.
	IngestBatch(ctx context.Context, leagueID int64, rows []Match) (BatchResult, error)

	// PromoteDue flips every match with scheduledStart <= now and not yet
	// live. Idempotent; returns the number of rows flipped.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// NextScheduledStart returns the earliest scheduled start strictly
	// after the given instant among not-yet-live matches, or nil.
	NextScheduledStart(ctx context.Context, after time.Time) (*time.Time, error)

	BeginCrawl(ctx context.Context, matchID int64, now time.Time, cooldown, staleLease time.Duration) (bool, error)
	FinishCrawl(ctx context.Context, matchID int64, finishedAt time.Time) error
}
