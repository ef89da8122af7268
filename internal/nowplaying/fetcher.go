package nowplaying

import (
	"context"
	"time"

	"skidoodle/postcard/internal/spotify"
)

const unknownArtist = "Unknown"

// Player is the subset of the Spotify API the fetcher needs.
type Player interface {
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error)
	RecentlyPlayed(ctx context.Context, accessToken string, limit int) (*spotify.RecentlyPlayed, error)
}

// Result is the outcome of a successful fetch. Found is false when Spotify
// reported neither a current nor a recent track.
type Result struct {
	Track Track
	Found bool
}

// Fetcher resolves the track to display: the current one, else the last played.
type Fetcher struct {
	player Player
	now    func() time.Time
}

// NewFetcher creates a fetcher backed by player.
func NewFetcher(player Player) *Fetcher {
	return &Fetcher{player: player, now: time.Now}
}

// Fetch queries currently-playing and falls back to recently-played.
// The fallback is never consulted when a current track exists.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string) (Result, error) {
	current, err := f.player.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		return Result{}, err
	}
	if current != nil && current.Item != nil {
		return Result{Track: f.playing(current), Found: true}, nil
	}

	recent, err := f.player.RecentlyPlayed(ctx, accessToken, 1)
	if err != nil {
		return Result{}, err
	}
	if recent == nil || len(recent.Items) == 0 || recent.Items[0].Track == nil {
		return Result{}, nil
	}
	return Result{Track: idle(recent.Items[0]), Found: true}, nil
}

// playing anchors the timestamp on the server-supplied value when present,
// otherwise on the time of the fetch.
func (f *Fetcher) playing(cp *spotify.CurrentlyPlaying) Track {
	ts := cp.Timestamp
	if ts <= 0 {
		ts = f.now().UnixMilli()
	}
	return Track{
		IsPlaying:     true,
		Title:         cp.Item.Name,
		Artist:        cp.Item.FirstArtist(),
		SongURL:       cp.Item.ExternalURLs.Spotify,
		AlbumImageURL: cp.Item.FirstImage(),
		Timestamp:     millis(ts),
	}
}

func idle(h spotify.PlayHistory) Track {
	t := Track{
		IsPlaying:     false,
		Title:         h.Track.Name,
		Artist:        h.Track.FirstArtist(),
		SongURL:       h.Track.ExternalURLs.Spotify,
		AlbumImageURL: h.Track.FirstImage(),
		Timestamp:     millis(h.PlayedAt.UnixMilli()),
	}
	if t.Artist == "" {
		t.Artist = unknownArtist
	}
	if t.SongURL == "" {
		t.SongURL = spotify.DefaultSongURL
	}
	return t
}
