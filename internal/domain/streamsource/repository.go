package streamsource

import "context"

// Repository describes stream-source persistence needs from use cases.
// Deleting a match cascade-deletes its sources; this interface never
// removes rows on its own.
type Repository interface {
	ListAll(ctx context.Context) ([]StreamSource, error)
	ListByMatch(ctx context.Context, matchID int64) ([]StreamSource, error)
	CountByMatch(ctx context.Context, matchID int64) (int, error)
	// Insert adds the source unless (matchID, link) already exists; the
	// bool reports whether a row was actually inserted.
	Insert(ctx context.Context, s StreamSource) (StreamSource, bool, error)
}
