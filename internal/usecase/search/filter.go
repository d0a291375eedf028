package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/domain/search/filter"
)

// applyFilter resolves every candidate to its room and keeps those matching f,
// preserving ranking order. Candidates whose room no longer exists are dropped.
func (s *Service) applyFilter(
	ctx context.Context, candidates []domain.ScoredCandidate, f filter.Filter,
) ([]Result, error) {
	out := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		room, err := s.findRoom(ctx, c.EntityID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find room %s: %w", c.EntityID, err)
		}
		if !f.Matches(&room) {
			continue
		}
		out = append(out, Result{Room: room, Score: c.Score})
	}
	return out, nil
}

func (s *Service) findRoom(ctx context.Context, id string) (domain.Room, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.DocumentStore)
	defer cancel()
	return s.rooms.FindByID(ctx, id) //nolint:wrapcheck // wrapped by caller
}
