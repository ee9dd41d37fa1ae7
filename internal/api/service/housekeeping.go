package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/portalhq/portal/internal/api/store"
)

// HousekeepingService periodically deletes expired verification codes and
// password reset tokens so those tables do not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. If interval is 0 or negative,
// it defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup deletes expired records. Each deletion is independent, a failure
// in one does not stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping sweep")

	if err := s.Store.VerificationCodes().DeleteExpiredVerificationCodes(ctx); err != nil {
		s.Logger.Error("failed to delete expired verification codes", "error", err)
	}

	if err := s.Store.PasswordResetTokens().DeleteExpiredResetTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	}

	s.Logger.Debug("housekeeping sweep completed")
}
