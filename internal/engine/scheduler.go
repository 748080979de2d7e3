package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hossamelshenawy/device-valuator/internal/store"
)

// Scheduler runs periodic maintenance: pruning expired reference prices
// from the cache.
type Scheduler struct {
	cron  *cron.Cron
	store store.Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewScheduler creates a Scheduler that prunes reference prices older than
// ttl at the given interval.
func NewScheduler(
	s store.Store,
	interval time.Duration,
	ttl time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	sched := &Scheduler{
		cron:  c,
		store: s,
		ttl:   ttl,
		log:   log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), sched.runPrune); err != nil {
		return nil, err
	}

	return sched, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runPrune() {
	ctx := context.Background()
	pruned, err := s.store.PruneReferencePrices(ctx, s.ttl)
	if err != nil {
		s.log.Error("reference price pruning failed", "error", err)
		return
	}
	if pruned > 0 {
		s.log.Info("reference prices pruned", "count", pruned)
	}
}
