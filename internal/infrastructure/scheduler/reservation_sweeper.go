package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appinventory "github.com/toystore/backend/internal/application/inventory"
	"github.com/toystore/backend/internal/infrastructure/config"
)

// ErrSweeperNotRunning is returned when an immediate sweep is requested on a stopped sweeper.
var ErrSweeperNotRunning = errors.New("reservation sweeper is not running")

const defaultSweepTimeout = 30 * time.Second

// ReservationSweeper periodically expires overdue stock reservations.
// Holds past their deadline stay rows in the database until a sweep marks
// them expired; availability math already ignores them before that.
type ReservationSweeper struct {
	service   *appinventory.ReservationService
	logger    *zap.Logger
	interval  time.Duration
	enabled   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReservationSweeper creates a sweeper from scheduler configuration.
func NewReservationSweeper(
	service *appinventory.ReservationService,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *ReservationSweeper {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReservationSweeper{
		service:  service,
		logger:   logger,
		interval: interval,
		enabled:  cfg.Enabled,
	}
}

// Start launches the background sweep loop.
func (s *ReservationSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.enabled {
		s.mu.Unlock()
		s.logger.Info("Reservation sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Reservation sweeper started",
		zap.Duration("interval", s.interval),
	)
	return nil
}

// Stop gracefully stops the sweeper.
func (s *ReservationSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reservation sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reservation sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *ReservationSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Reservation sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

func (s *ReservationSweeper) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, defaultSweepTimeout)
	defer cancel()

	startTime := time.Now()
	expired, err := s.service.ExpireSweep(sweepCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Reservation sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if expired > 0 {
		s.logger.Info("Reservation sweep completed",
			zap.Duration("duration", duration),
			zap.Int64("expired_count", expired),
		)
	}
}

// TriggerImmediateSweep runs a sweep outside the regular schedule.
func (s *ReservationSweeper) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSweeperNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the sweeper is running
func (s *ReservationSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
