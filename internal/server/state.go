package server

import (
	"time"

	"skidoodle/postcard/internal/nowplaying"
)

// PlaybackState is the client-facing data structure.
type PlaybackState struct {
	nowplaying.Track
	Phase nowplaying.Phase `json:"phase"`
	Ago   string           `json:"ago"`
}

// newPlaybackState creates a client-facing PlaybackState with its freshness label rendered at now.
func newPlaybackState(t nowplaying.Track, now time.Time) PlaybackState {
	return PlaybackState{
		Track: t,
		Phase: t.Phase(),
		Ago:   t.Ago(now),
	}
}
