package worker

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/storage"
)

// Scheduler prunes old plans from the history on a cron schedule
type Scheduler struct {
	cron          *cron.Cron
	store         storage.PlanStore
	schedule      string
	retentionDays int
}

// NewScheduler creates a scheduler that removes plans older than
// retentionDays. A retention of zero or less disables pruning.
func NewScheduler(store storage.PlanStore, schedule string, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		store:         store,
		schedule:      schedule,
		retentionDays: retentionDays,
	}
}

// Start registers the prune job and starts the cron loop
func (s *Scheduler) Start() error {
	if s.retentionDays <= 0 {
		log.Debug("Plan retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.prune); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Info("Retention scheduler started", "schedule", s.schedule, "retention_days", s.retentionDays)
	return nil
}

// Stop stops the cron loop and waits for a running prune to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) prune() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	removed, err := s.store.PrunePlans(cutoff)
	if err != nil {
		log.Error("Plan pruning failed", "error", err)
		return
	}

	if removed > 0 {
		log.Info("Pruned old plans", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
}
