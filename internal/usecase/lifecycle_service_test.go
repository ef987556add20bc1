package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPromoteDueReturnsNextWake(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := newMatchRepoMock(t)

	svc := NewLifecycleService(matchRepo, nil)
	now := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	next := now.Add(45 * time.Minute)
	matchRepo.On("PromoteDue", ctx, now).Return(2, nil).Once()
	matchRepo.On("NextScheduledStart", ctx, now).Return(&next, nil).Once()

	promoted, wake, err := svc.PromoteDue(ctx)
	if err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	if promoted != 2 {
		t.Fatalf("promoted: got=%d want=2", promoted)
	}
	if wake == nil || !wake.Equal(next) {
		t.Fatalf("wake: got=%v want=%v", wake, next)
	}
}

func TestPromoteDueNoUpcomingMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := newMatchRepoMock(t)

	svc := NewLifecycleService(matchRepo, nil)
	now := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	matchRepo.On("PromoteDue", ctx, now).Return(0, nil).Once()
	matchRepo.On("NextScheduledStart", ctx, now).Return(nil, nil).Once()

	promoted, wake, err := svc.PromoteDue(ctx)
	if err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	if promoted != 0 || wake != nil {
		t.Fatalf("got promoted=%d wake=%v, want 0 and nil", promoted, wake)
	}
}

func TestPromoteDuePropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := newMatchRepoMock(t)

	svc := NewLifecycleService(matchRepo, nil)
	now := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	wantErr := errors.New("db down")
	matchRepo.On("PromoteDue", ctx, now).Return(0, wantErr).Once()

	_, _, err := svc.PromoteDue(ctx)
	if !errors.Is(err, wantErr) {
		t.Fatalf("error: got=%v want=%v", err, wantErr)
	}
}
