// Package nowplaying keeps an in-memory record of the track the site owner is
// listening to, refreshed from Spotify on a fixed interval.
package nowplaying

import (
	"time"

	"skidoodle/postcard/internal/spotify"
)

// Phase is the logical state a Track is in.
type Phase string

const (
	PhaseUnknown Phase = "unknown"
	PhasePlaying Phase = "playing"
	PhaseIdle    Phase = "idle"
)

// Track is the single piece of mutable now-playing state.
// Timestamp is epoch milliseconds: playback anchor while playing,
// last-played time while idle, nil before the first successful fetch.
type Track struct {
	IsPlaying     bool   `json:"isPlaying"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	SongURL       string `json:"songUrl"`
	AlbumImageURL string `json:"albumImageUrl"`
	Timestamp     *int64 `json:"timestamp"`
}

// Unknown returns the track shown before anything has been fetched.
func Unknown() Track {
	return Track{SongURL: spotify.DefaultSongURL}
}

// Phase classifies the track.
func (t Track) Phase() Phase {
	switch {
	case t.Title == "":
		return PhaseUnknown
	case t.IsPlaying:
		return PhasePlaying
	default:
		return PhaseIdle
	}
}

// Equal reports whether two tracks carry the same values.
func (t Track) Equal(o Track) bool {
	if t.IsPlaying != o.IsPlaying || t.Title != o.Title || t.Artist != o.Artist ||
		t.SongURL != o.SongURL || t.AlbumImageURL != o.AlbumImageURL {
		return false
	}
	if (t.Timestamp == nil) != (o.Timestamp == nil) {
		return false
	}
	return t.Timestamp == nil || *t.Timestamp == *o.Timestamp
}

// Ago renders the freshness label for the track at now.
func (t Track) Ago(now time.Time) string {
	return Freshness(t.Timestamp, now.UnixMilli())
}

func millis(v int64) *int64 {
	return &v
}
