package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner is the activity monitor's retention helper.
type Pruner interface {
	Prune(olderThan time.Duration) int
}

// ArchiveCleaner drops archived security events.
type ArchiveCleaner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs the operator-configured maintenance jobs. Nothing is
// registered unless a schedule is given.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	jobs   int
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// AddPrune invokes monitor.Prune(retention) on spec.
func (s *Scheduler) AddPrune(spec string, monitor Pruner, retention time.Duration) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		removed := monitor.Prune(retention)
		s.logger.Info("activity log pruned", "removed", removed, "retention", retention.String())
	})
	if err != nil {
		s.logger.Error("Failed to register activity prune job", "error", err)
		return err
	}
	s.jobs++
	return nil
}

// AddArchiveCleanup deletes archived events older than retention on spec.
func (s *Scheduler) AddArchiveCleanup(spec string, archive ArchiveCleaner, retention time.Duration) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := archive.DeleteBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			s.logger.Error("security archive cleanup failed", "error", err)
			return
		}
		s.logger.Info("security archive cleaned", "removed", removed, "retention", retention.String())
	})
	if err != nil {
		s.logger.Error("Failed to register archive cleanup job", "error", err)
		return err
	}
	s.jobs++
	return nil
}

func (s *Scheduler) Jobs() int {
	return s.jobs
}

func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.logger.Info("Starting scheduler", "jobs", s.jobs)
	s.cron.Start()
}

// Stop waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
