package nowplaying

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the pause between two sync cycles.
const DefaultInterval = 60 * time.Second

// Syncer runs a single cycle.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Scheduler drives a Syncer once immediately and then on a fixed interval.
// Cycles are not serialized: a slow cycle may overlap the next one and the
// last write to State wins.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	log      logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	cycles sync.WaitGroup
	loop   sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive interval selects DefaultInterval.
func NewScheduler(syncer Syncer, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{syncer: syncer, interval: interval, log: log}
}

// Start launches the first cycle and the interval loop. Calling Start on a
// running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.log.WithField("interval", s.interval).Info("poller started")
	s.spawn(ctx)

	s.loop.Add(1)
	go s.run(ctx)
}

// Stop cancels the timer and any in-flight cycle, and waits for them to return.
// No cycle starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.loop.Wait()
	s.cycles.Wait()
	s.log.Info("poller stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.loop.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawn(ctx)
		}
	}
}

// spawn fires one cycle without waiting for it.
func (s *Scheduler) spawn(ctx context.Context) {
	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()
		if ctx.Err() != nil {
			return
		}
		if err := s.syncer.Sync(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("now playing sync failed")
		}
	}()
}
