package extraction

import "context"

// RawFixture is one unvalidated fixture record scraped from a league
// listing page. RawSchedule carries the source's free-form schedule text,
// e.g. "North London derby / 14 March at 20:00".
type RawFixture struct {
	Team1        string
	Team2        string
	SourceLink   string
	RawSchedule  string
	ObservedLive bool
}

// Profile parameterizes extraction for one league. Leagues differ only in
// page layout; the selectors tell the renderer which nodes to read, and the
// lifecycle logic never branches on league identity.
type Profile struct {
	League          string
	ListingURL      string
	FixtureSelector string
	LinkSelector    string
	PlayerSelector  string
}

// Extractor is the page-extraction capability backing ingestion and
// crawling. Calls return empty results on timeout or structural mismatch;
// an error means an unrecoverable transport failure.
type Extractor interface {
	FetchFixtures(ctx context.Context, profile Profile) ([]RawFixture, error)
	FetchCandidateLinks(ctx context.Context, matchURL string) ([]string, error)
	// ResolvePlayableSource returns "" when the candidate page exposes no
	// playable source.
	ResolvePlayableSource(ctx context.Context, candidateURL string) (string, error)
}
