package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/metrics"
)

// BookingExpirer is the sweep the scheduler drives on each tick.
type BookingExpirer interface {
	ExpireOverdueBookings(ctx context.Context) (int, error)
}

// ExpirationSweeper periodically expires abandoned reservations. A sweep never
// overlaps with itself: a tick arriving while the previous sweep still runs is
// skipped.
type ExpirationSweeper struct {
	expirer BookingExpirer
	period  time.Duration
	logger  *zap.Logger
	running atomic.Bool
}

// NewExpirationSweeper builds the sweeper. period falls back to one minute.
func NewExpirationSweeper(expirer BookingExpirer, period time.Duration, logger *zap.Logger) *ExpirationSweeper {
	if period <= 0 {
		period = time.Minute
	}
	return &ExpirationSweeper{
		expirer: expirer,
		period:  period,
		logger:  logger,
	}
}

// Run blocks, sweeping on every tick until the context is cancelled.
func (s *ExpirationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.logger.Info("expiration sweeper started", zap.Duration("period", s.period))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiration pass. Returns false if a pass was already in flight.
func (s *ExpirationSweeper) Sweep(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("expiration sweep still running, skipping tick")
		return false
	}
	defer s.running.Store(false)

	expired, err := s.expirer.ExpireOverdueBookings(ctx)
	if err != nil {
		s.logger.Error("expiration sweep failed", zap.Error(err))
		return true
	}
	if expired > 0 {
		metrics.AddExpiredBookings(expired)
		s.logger.Info("expired overdue bookings", zap.Int("count", expired))
	}
	return true
}
