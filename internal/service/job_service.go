package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"parkinglot/internal/repository"
	"parkinglot/internal/telemetry"
)

type JobService struct {
	Repo   *repository.JobRepository
	Logger zerolog.Logger
}

func NewJobService(repo *repository.JobRepository, logger zerolog.Logger) *JobService {
	return &JobService{Repo: repo, Logger: logger.With().Str("component", "jobs").Logger()}
}

// ReconcileOccupancy recomputes every space's occupied flag from its open
// tickets and returns how many spaces were corrected. Tickets opened or closed
// while it runs win over its snapshot.
func (s *JobService) ReconcileOccupancy(ctx context.Context) (int64, error) {
	s.Logger.Debug().Msg("Cron Job: reconciling space occupancy")

	spaces, err := s.Repo.ListSpaceOccupancy(ctx)
	if err != nil {
		return 0, fmt.Errorf("cron job: %w", err)
	}
	openIDs, err := s.Repo.SpaceIDsWithOpenTickets(ctx)
	if err != nil {
		return 0, fmt.Errorf("cron job: %w", err)
	}

	holding := make(map[string]struct{}, len(openIDs))
	for _, id := range openIDs {
		holding[id] = struct{}{}
	}

	var toOccupy, toFree []string
	for _, sp := range spaces {
		_, hasTicket := holding[sp.ID]
		switch {
		case hasTicket && !sp.Occupied:
			toOccupy = append(toOccupy, sp.ID)
		case !hasTicket && sp.Occupied:
			toFree = append(toFree, sp.ID)
		}
	}

	if len(toOccupy) == 0 && len(toFree) == 0 {
		s.Logger.Debug().Msg("Cron Job: occupancy already consistent")
		return 0, nil
	}

	occupied, err := s.Repo.UpdateSpaceOccupancy(ctx, toOccupy, true)
	if err != nil {
		return 0, fmt.Errorf("cron job: %w", err)
	}
	freed, err := s.Repo.UpdateSpaceOccupancy(ctx, toFree, false)
	if err != nil {
		return occupied, fmt.Errorf("cron job: %w", err)
	}

	total := occupied + freed
	if total == 0 {
		s.Logger.Debug().Msg("Cron Job: tickets changed during reconciliation, nothing corrected")
		return 0, nil
	}
	telemetry.OccupancyCorrectionsTotal.Add(float64(total))
	s.Logger.Warn().
		Strs("occupied", toOccupy).
		Strs("freed", toFree).
		Msgf("Cron Job: corrected occupancy of %d spaces", total)
	return total, nil
}
