package nowplaying

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingSyncer) Sync(ctx context.Context) error {
	c.calls.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerRunsImmediatelyThenOnInterval(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, 20*time.Millisecond, logrus.New())
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return syncer.calls.Load() >= 3 })
}

func TestSchedulerStartStopImmediately(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, 10*time.Millisecond, logrus.New())
	s.Start(context.Background())
	s.Stop()

	after := syncer.calls.Load()
	if after > 1 {
		t.Fatalf("calls = %d, want at most 1", after)
	}

	time.Sleep(50 * time.Millisecond)
	if got := syncer.calls.Load(); got != after {
		t.Fatalf("calls after Stop = %d, want %d", got, after)
	}
}

func TestSchedulerStopCancelsInFlightCycle(t *testing.T) {
	syncer := &countingSyncer{block: make(chan struct{})}
	s := NewScheduler(syncer, time.Hour, logrus.New())
	s.Start(context.Background())
	waitFor(t, func() bool { return syncer.calls.Load() == 1 })

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a cycle was in flight")
	}
}

func TestSchedulerAllowsOverlappingCycles(t *testing.T) {
	syncer := &countingSyncer{block: make(chan struct{})}
	s := NewScheduler(syncer, 10*time.Millisecond, logrus.New())
	s.Start(context.Background())

	// The first cycle never finishes until Stop, yet later ticks still fire.
	waitFor(t, func() bool { return syncer.calls.Load() >= 2 })
	s.Stop()
}

func TestSchedulerLogsAndSwallowsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	syncer := &countingSyncer{err: errors.New("network down")}

	s := NewScheduler(syncer, time.Hour, logger)
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Message == "now playing sync failed" {
				return true
			}
		}
		return false
	})
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, time.Hour, logrus.New())
	s.Start(context.Background())
	s.Start(context.Background())
	waitFor(t, func() bool { return syncer.calls.Load() >= 1 })
	s.Stop()
	s.Stop()

	if got := syncer.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}
