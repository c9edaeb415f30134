package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Syncer reconciles the client-local chat cache with the server copy.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Scheduler runs periodic chat reconciliation in the background.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sync loop. A zero interval disables it.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Chat sync disabled")
		close(s.done)
		return
	}
	s.logger.Info("Starting background chat sync", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight sync to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("Chat sync stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Chat sync cancelled")
			return
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	n, err := s.syncer.Sync(ctx)
	if err != nil {
		s.logger.Warn("Chat sync failed", zap.Error(err))
		return
	}
	s.logger.Debug("Chat sync completed", zap.Int("threads", n))
}
