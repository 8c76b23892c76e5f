package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/cache"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/metrics"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

type mailingCounter interface {
	CountByStatus(ctx context.Context) (map[model.MailingStatus]int, error)
}

type clientCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatsService serves the home-page counters, recomputing them on a cache miss.
type StatsService struct {
	Mailings mailingCounter
	Clients  clientCounter
	Cache    cache.StatsCache
	Log      zerolog.Logger
}

func (s *StatsService) Home(ctx context.Context) (*model.HomeStats, error) {
	stats, ok, err := s.Cache.Get(ctx)
	switch {
	case err != nil:
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
		s.Log.Warn().Err(err).Msg("stats cache unavailable, recomputing")
	case ok:
		metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
		return stats, nil
	default:
		metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
	}

	stats, err = s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, stats); err != nil {
		s.Log.Warn().Err(err).Msg("failed to cache home stats")
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*model.HomeStats, error) {
	byStatus, err := s.Mailings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count mailings: %w", err)
	}
	clients, err := s.Clients.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &model.HomeStats{
		TotalMailings:  total,
		ActiveMailings: byStatus[model.MailingRunning],
		UniqueClients:  clients,
	}, nil
}
