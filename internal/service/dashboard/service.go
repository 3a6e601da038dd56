package dashboard

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

const (
	summaryKey      = "summary"
	upcomingLimit   = 5
	defaultCacheTTL = 15 * time.Second
	cleanupInterval = time.Minute
)

type DashboardService interface {
	Summary(ctx context.Context) (*model.DashboardSummary, error)
	Invalidate()
}

// Service builds the dashboard summary and keeps it for a short TTL. Writers call
// Invalidate after committing so the next read is fresh.
type Service struct {
	store repository.Store
	cache *cache.Cache
	now   func() time.Time
}

func NewService(store repository.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		store: store,
		cache: cache.New(ttl, cleanupInterval),
		now:   time.Now,
	}
}

func (s *Service) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	if cached, found := s.cache.Get(summaryKey); found {
		return cached.(*model.DashboardSummary), nil
	}

	rooms, err := s.store.Rooms().List(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	counts, err := s.store.Rooms().Counts(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	pending, err := s.store.Stats().PendingCount(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	upcoming, err := s.store.Stays().Upcoming(ctx, model.NewDate(s.now()), upcomingLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	summary := &model.DashboardSummary{
		Rooms: rooms,
		Stats: model.DashboardStats{
			OccupancyPct: counts.OccupancyPct(),
			FreeBeds:     counts.Free,
			Pending:      pending,
			Guests:       counts.Occupied,
		},
		UpcomingArrivals: upcoming,
	}
	s.cache.Set(summaryKey, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *Service) Invalidate() {
	s.cache.Delete(summaryKey)
}
