package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/store"
)

// HousekeepingService periodically deletes expired refresh tokens and
// consumed or expired single-use tokens so the tables don't grow without
// bound. Audit events are deliberately left alone.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. A non-positive interval defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
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

// Stop shuts down the worker, blocking until any in-progress cleanup ends.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
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

// cleanup deletes expired records. Each deletion is independent; a failure
// in one doesn't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Store.RefreshTokens().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	}

	if err := s.Store.EmailVerifications().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired verification tokens", "error", err)
	}

	if err := s.Store.PasswordResets().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
