package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"skidoodle/postcard/internal/nowplaying"
)

// DefaultFreshnessInterval is how often the "ago" label is re-rendered.
const DefaultFreshnessInterval = 10 * time.Second

// Relay forwards now-playing changes to the hub, and re-sends the last state
// on a fixed tick so the freshness label stays current on open pages.
type Relay struct {
	state    *nowplaying.State
	hub      *Hub
	interval time.Duration
	now      func() time.Time
	log      logrus.FieldLogger

	mu   sync.RWMutex
	last *nowplaying.Track
}

// NewRelay creates a new Relay.
func NewRelay(state *nowplaying.State, hub *Hub, interval time.Duration, log logrus.FieldLogger) *Relay {
	if interval <= 0 {
		interval = DefaultFreshnessInterval
	}
	return &Relay{
		state:    state,
		hub:      hub,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Run forwards updates until ctx is cancelled or updates is closed.
// It must be run in a separate goroutine.
func (r *Relay) Run(ctx context.Context, updates <-chan nowplaying.Track) {
	r.log.Info("relay started")
	defer r.log.Info("relay stopped")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case track, ok := <-updates:
			if !ok {
				return
			}
			r.update(ctx, track)
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Snapshot renders the current state for a single new client.
func (r *Relay) Snapshot() PlaybackState {
	return newPlaybackState(r.state.Get(), r.now())
}

// seed records track as the state clients have already seen, so a track
// written before the relay subscribed still gets freshness ticks.
func (r *Relay) seed(track nowplaying.Track) {
	if track.Phase() == nowplaying.PhaseUnknown {
		return
	}
	r.mu.Lock()
	if r.last == nil {
		r.last = &track
	}
	r.mu.Unlock()
}

// update broadcasts track if it differs from what clients last saw.
func (r *Relay) update(ctx context.Context, track nowplaying.Track) {
	r.mu.Lock()
	changed := r.last == nil || !r.last.Equal(track)
	if changed {
		r.last = &track
	}
	r.mu.Unlock()

	if !changed {
		return
	}
	r.log.WithFields(logrus.Fields{
		"isPlaying": track.IsPlaying,
		"track":     track.Title,
	}).Info("state changed, broadcasting update")
	r.hub.Broadcast(ctx, newPlaybackState(track, r.now()))
}

// refresh re-sends the last state when it has a timestamp to re-render.
func (r *Relay) refresh(ctx context.Context) {
	r.mu.RLock()
	last := r.last
	r.mu.RUnlock()

	if last == nil || last.Timestamp == nil {
		return
	}
	r.hub.Broadcast(ctx, newPlaybackState(*last, r.now()))
}
