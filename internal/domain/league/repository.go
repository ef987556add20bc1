package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID int64) (League, bool, error)
	GetByName(ctx context.Context, name string) (League, bool, error)
	// Upsert inserts the league by name or returns the stored row when it
	// already exists. Seeding is idempotent.
	Upsert(ctx context.Context, l League) (League, error)
}
