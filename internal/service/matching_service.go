package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
)

// Matching thresholds. A quality match wants a proven worker; the fallback
// pass of the reassignment cascade accepts anyone available.
const (
	QualityMinRating      = 3.5
	FallbackMinRating     = 0.0
	DefaultCandidateLimit = 5
)

type WorkerLister interface {
	ListAvailableByShop(ctx context.Context, shopID uuid.UUID) ([]models.Worker, error)
}

// MatchingService ranks and selects candidate workers for a shop.
type MatchingService struct {
	workers WorkerLister
}

func NewMatchingService(workers WorkerLister) *MatchingService {
	return &MatchingService{workers: workers}
}

// FindCandidates returns up to limit available workers of the shop with
// rating >= minRating, excluding the given ids, best first: rating
// descending, then response time ascending, then distance ascending
// (distance is an opaque tie-break maintained by an external collaborator).
// An empty result is not an error; the caller decides what happens next.
func (s *MatchingService) FindCandidates(ctx context.Context, shopID uuid.UUID, excludeWorkerIDs []uuid.UUID, minRating float64, limit int) ([]models.Worker, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	workers, err := s.workers.ListAvailableByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]struct{}, len(excludeWorkerIDs))
	for _, id := range excludeWorkerIDs {
		excluded[id] = struct{}{}
	}

	candidates := make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		if _, skip := excluded[w.ID]; skip {
			continue
		}
		if w.Rating < minRating {
			continue
		}
		candidates = append(candidates, w)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Rating != candidates[j].Rating {
			return candidates[i].Rating > candidates[j].Rating
		}
		if candidates[i].ResponseTimeMinutes != candidates[j].ResponseTimeMinutes {
			return candidates[i].ResponseTimeMinutes < candidates[j].ResponseTimeMinutes
		}
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
