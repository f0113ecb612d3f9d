package scheduler

import (
	"context"
	"time"

	"healthsched/internal/app"
	"healthsched/internal/domain/alert"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReconcileScheduler periodically re-runs the coordinator's full
// reconciliation pass so the externally scheduled alerts heal from drift
// (app restarts, notification-store resets) without any record mutation.
type ReconcileScheduler struct {
	cronEngine        *cron.Cron
	coordinator       *app.SchedulingCoordinator
	settings          alert.Settings
	logger            *logrus.Logger
	cronSpecReconcile string
}

func NewReconcileScheduler(
	coordinator *app.SchedulingCoordinator,
	settings alert.Settings,
	logger *logrus.Logger,
	cronSpecReconcile string, // e.g. "*/15 * * * *"
) *ReconcileScheduler {
	return &ReconcileScheduler{
		cronEngine:        cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		coordinator:       coordinator,
		settings:          settings,
		logger:            logger,
		cronSpecReconcile: cronSpecReconcile,
	}
}

func (s *ReconcileScheduler) Start() error {
	s.logger.Info("Starting reconciliation scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecReconcile, func() {
		s.logger.Debug("Cron job triggered for alert reconciliation.")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.coordinator.ReconcileAll(ctx, s.settings, time.Now()); err != nil {
			s.logger.Errorf("Error during alert reconciliation: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("Reconciliation scheduler started.")
	return nil
}

func (s *ReconcileScheduler) Stop() {
	s.logger.Info("Stopping reconciliation scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reconciliation scheduler gracefully stopped.")
}
