package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
)

const maintenanceTimeout = 5 * time.Minute

// MaintenanceService periodically asks the store to refresh its statistics
// and compact its journal. It never touches application data.
type MaintenanceService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMaintenanceService defaults a non-positive interval to 6 hours.
func NewMaintenanceService(st store.Store, logger *slog.Logger, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &MaintenanceService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the worker. Call Stop to shut it down.
func (s *MaintenanceService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("maintenance worker started", "interval", s.Interval)
}

// Stop blocks until an in-progress pass has finished. It is a no-op for a
// worker that was never started.
func (s *MaintenanceService) Stop() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("maintenance worker stopped")
}

func (s *MaintenanceService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single maintenance pass.
func (s *MaintenanceService) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	start := time.Now()
	if err := s.Store.Optimize(ctx); err != nil {
		s.Logger.Error("store maintenance failed", "error", err)
		return
	}
	s.Logger.Info("store maintenance completed", "duration", time.Since(start))
}
