package cache

import (
	"context"
	"strconv"

	"github.com/enkhjin/sportstream/internal/domain/league"
	basecache "github.com/enkhjin/sportstream/internal/platform/cache"
)

// LeagueRepository caches league reads in front of the persistent
// repository. Leagues change only through Bootstrap upserts, so a short
// TTL plus invalidation on write keeps the cache honest.
type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.cache.GetOrLoad(ctx, "league:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	key := "league:id:" + strconv.FormatInt(leagueID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return cachedLeague{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeague)
	return cached.value, cached.exists, nil
}

func (r *LeagueRepository) GetByName(ctx context.Context, name string) (league.League, bool, error) {
	key := "league:name:" + name
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return cachedLeague{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeague)
	return cached.value, cached.exists, nil
}

func (r *LeagueRepository) Upsert(ctx context.Context, l league.League) (league.League, error) {
	upserted, err := r.next.Upsert(ctx, l)
	if err != nil {
		return league.League{}, err
	}
	r.cache.DeletePrefix(ctx, "league:")

	return upserted, nil
}

type cachedLeague struct {
	value  league.League
	exists bool
}
