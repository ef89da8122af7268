package spotify

import "time"

// DefaultSongURL is used when a track carries no external link.
const DefaultSongURL = "https://open.spotify.com"

// Image is one album artwork rendition.
type Image struct {
	URL string `json:"url"`
}

// Artist is the simplified artist object embedded in tracks.
type Artist struct {
	Name string `json:"name"`
}

// TrackItem represents the track object from the Spotify API.
type TrackItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DurationMs   int      `json:"duration_ms"`
	Artists      []Artist `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Album struct {
		Images []Image `json:"images"`
	} `json:"album"`
}

// FirstArtist returns the first credited artist's name, or "" when there is none.
func (t *TrackItem) FirstArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// FirstImage returns the first album image URL, or "" when there is none.
func (t *TrackItem) FirstImage() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// CurrentlyPlaying represents the currently playing object from the Spotify API.
// The Item field is a pointer to handle cases where nothing is playing (item is null).
type CurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMs int        `json:"progress_ms"`
	Timestamp  int64      `json:"timestamp"`
	Item       *TrackItem `json:"item"`
}

// PlayHistory is one entry of the recently played list.
type PlayHistory struct {
	Track    *TrackItem `json:"track"`
	PlayedAt time.Time  `json:"played_at"`
}

// RecentlyPlayed is the cursor page returned by the recently played endpoint.
type RecentlyPlayed struct {
	Items []PlayHistory `json:"items"`
}
