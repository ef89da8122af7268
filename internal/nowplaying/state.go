package nowplaying

import "sync"

// State is an observable cell holding the current Track.
// Writes replace the whole value; subscribers always see the latest one.
type State struct {
	mu    sync.RWMutex
	track Track
	subs  map[chan Track]struct{}
}

// NewState creates a cell holding the unknown track.
func NewState() *State {
	return &State{
		track: Unknown(),
		subs:  make(map[chan Track]struct{}),
	}
}

// Get returns the current track.
func (s *State) Get() Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track
}

// Set overwrites the current track and notifies subscribers.
func (s *State) Set(t Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.track = t
	for ch := range s.subs {
		// Keep only the newest value for slow subscribers.
		select {
		case <-ch:
		default:
		}
		ch <- t
	}
}

// Subscribe returns a channel that receives every subsequent write and a
// function that ends the subscription. The channel is closed on cancel.
func (s *State) Subscribe() (<-chan Track, func()) {
	ch := make(chan Track, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
