package usecase

import (
	"context"
	"fmt"

	"github.com/enkhjin/sportstream/internal/domain/league"
)

type LeagueService struct {
	leagueRepo league.Repository
}

func NewLeagueService(leagueRepo league.Repository) *LeagueService {
	return &LeagueService{leagueRepo: leagueRepo}
}

func (s *LeagueService) List(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "LeagueService.List")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return leagues, nil
}
