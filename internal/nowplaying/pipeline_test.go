package nowplaying

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"skidoodle/postcard/internal/spotify"
)

// fakeSpotify serves the accounts and player endpoints from one server.
type fakeSpotify struct {
	server *httptest.Server

	tokenStatus   int
	currentStatus int
	currentBody   string
	recentStatus  int
	recentBody    string

	tokenCalls   atomic.Int32
	currentCalls atomic.Int32
	recentCalls  atomic.Int32
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{
		tokenStatus:   http.StatusOK,
		currentStatus: http.StatusNoContent,
		recentStatus:  http.StatusOK,
		recentBody:    `{"items":[]}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
		f.currentCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(f.currentStatus)
		_, _ = w.Write([]byte(f.currentBody))
	})
	mux.HandleFunc("/v1/me/player/recently-played", func(w http.ResponseWriter, r *http.Request) {
		f.recentCalls.Add(1)
		w.WriteHeader(f.recentStatus)
		_, _ = w.Write([]byte(f.recentBody))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSpotify) calls() int32 {
	return f.tokenCalls.Load() + f.currentCalls.Load() + f.recentCalls.Load()
}

func (f *fakeSpotify) pipeline(creds spotify.Credentials, state *State, log logrus.FieldLogger) *Pipeline {
	tokens := spotify.NewTokenExchanger(creds, f.server.Client(), f.server.URL+"/api/token")
	client := spotify.NewClient(f.server.Client(), f.server.URL+"/v1", log)
	return NewPipeline(creds, tokens, NewFetcher(client), state, log)
}

var fullCreds = spotify.Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}

const playingBody = `{
	"is_playing": true,
	"timestamp": 1700000000000,
	"item": {
		"name": "Now Song",
		"artists": [{"name": "Now Artist"}],
		"external_urls": {"spotify": "https://open.spotify.com/track/now"},
		"album": {"images": [{"url": "https://i.scdn.co/now"}]}
	}
}`

const recentBody = `{"items":[{
	"played_at": "2024-03-01T12:30:00Z",
	"track": {
		"name": "Old Song",
		"artists": [{"name": "Old Artist"}],
		"external_urls": {"spotify": "https://open.spotify.com/track/old"},
		"album": {"images": [{"url": "https://i.scdn.co/old"}]}
	}
}]}`

func TestPipelineIncompleteCredentialsMakesNoCalls(t *testing.T) {
	for _, creds := range []spotify.Credentials{
		{},
		{ClientID: "id", ClientSecret: "secret"},
		{ClientID: "id", RefreshToken: "refresh"},
		{ClientSecret: "secret", RefreshToken: "refresh"},
	} {
		f := newFakeSpotify(t)
		state := NewState()
		before := state.Get()

		p := f.pipeline(creds, state, logrus.New())
		if p.Enabled() {
			t.Fatalf("pipeline enabled with %+v", creds)
		}
		if err := p.Sync(context.Background()); err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if n := f.calls(); n != 0 {
			t.Fatalf("network calls = %d, want 0", n)
		}
		if !state.Get().Equal(before) {
			t.Fatal("state changed")
		}
	}
}

func TestPipelineCurrentlyPlaying(t *testing.T) {
	f := newFakeSpotify(t)
	f.currentStatus = http.StatusOK
	f.currentBody = playingBody
	f.recentBody = recentBody

	state := NewState()
	if err := f.pipeline(fullCreds, state, logrus.New()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	want := Track{
		IsPlaying:     true,
		Title:         "Now Song",
		Artist:        "Now Artist",
		SongURL:       "https://open.spotify.com/track/now",
		AlbumImageURL: "https://i.scdn.co/now",
		Timestamp:     millis(1_700_000_000_000),
	}
	if got := state.Get(); !got.Equal(want) {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if n := f.recentCalls.Load(); n != 0 {
		t.Fatalf("recently played called %d times", n)
	}
}

func TestPipelineFallsBackToRecentlyPlayed(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
	}{
		{name: "null item", status: http.StatusOK, body: `{"is_playing":false,"item":null}`},
		{name: "no content", status: http.StatusNoContent},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSpotify(t)
			f.currentStatus = tt.status
			f.currentBody = tt.body
			f.recentBody = recentBody

			state := NewState()
			if err := f.pipeline(fullCreds, state, logrus.New()).Sync(context.Background()); err != nil {
				t.Fatalf("Sync: %v", err)
			}

			playedAt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli()
			want := Track{
				IsPlaying:     false,
				Title:         "Old Song",
				Artist:        "Old Artist",
				SongURL:       "https://open.spotify.com/track/old",
				AlbumImageURL: "https://i.scdn.co/old",
				Timestamp:     millis(playedAt),
			}
			if got := state.Get(); !got.Equal(want) {
				t.Fatalf("state = %+v, want %+v", got, want)
			}
		})
	}
}

func TestPipelineRecentDefaults(t *testing.T) {
	f := newFakeSpotify(t)
	f.recentBody = `{"items":[{"played_at":"2024-03-01T12:30:00Z","track":{"name":"Bare"}}]}`

	state := NewState()
	if err := f.pipeline(fullCreds, state, logrus.New()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got := state.Get()
	if got.Artist != "Unknown" {
		t.Errorf("artist = %q, want Unknown", got.Artist)
	}
	if got.SongURL != spotify.DefaultSongURL {
		t.Errorf("song url = %q", got.SongURL)
	}
	if got.AlbumImageURL != "" {
		t.Errorf("album image = %q, want empty", got.AlbumImageURL)
	}
}

func TestPipelineBothEmptyLeavesStateUntouched(t *testing.T) {
	f := newFakeSpotify(t)
	f.currentStatus = http.StatusOK
	f.currentBody = `{"is_playing":false,"item":null}`
	f.recentBody = `{"items":[]}`

	state := NewState()
	prior := Track{IsPlaying: false, Title: "Kept", Artist: "Kept Artist", SongURL: "u", Timestamp: millis(42)}
	state.Set(prior)

	if err := f.pipeline(fullCreds, state, logrus.New()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := state.Get(); !got.Equal(prior) {
		t.Fatalf("state = %+v, want unchanged %+v", got, prior)
	}
}

func TestPipelineFailuresLeaveStateUntouched(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeSpotify)
	}{
		{
			name: "token exchange rejected",
			setup: func(f *fakeSpotify) {
				f.tokenStatus = http.StatusBadRequest
			},
		},
		{
			name: "token endpoint unreachable",
			setup: func(f *fakeSpotify) {
				f.server.Close()
			},
		},
		{
			name: "recently played fails",
			setup: func(f *fakeSpotify) {
				f.recentStatus = http.StatusInternalServerError
			},
		},
		{
			name: "malformed currently playing",
			setup: func(f *fakeSpotify) {
				f.currentStatus = http.StatusOK
				f.currentBody = `{"item":`
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSpotify(t)
			tt.setup(f)

			state := NewState()
			prior := state.Get()

			err := f.pipeline(fullCreds, state, logrus.New()).Sync(context.Background())
			if err == nil {
				t.Fatal("expected Sync to report the failure")
			}
			if got := state.Get(); !got.Equal(prior) {
				t.Fatalf("state changed to %+v", got)
			}
		})
	}
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) Exchange(context.Context) (string, error) {
	return s.token, s.err
}

type stubPlayer struct {
	current *spotify.CurrentlyPlaying
	recent  *spotify.RecentlyPlayed
	onFetch func()
}

func (s stubPlayer) CurrentlyPlaying(context.Context, string) (*spotify.CurrentlyPlaying, error) {
	if s.onFetch != nil {
		s.onFetch()
	}
	return s.current, nil
}

func (s stubPlayer) RecentlyPlayed(context.Context, string, int) (*spotify.RecentlyPlayed, error) {
	return s.recent, nil
}

func TestPipelineSkipsWriteAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	player := stubPlayer{
		current: &spotify.CurrentlyPlaying{Item: &spotify.TrackItem{Name: "late"}},
		onFetch: cancel,
	}

	state := NewState()
	p := NewPipeline(fullCreds, stubTokens{token: "t"}, NewFetcher(player), state, logrus.New())
	if err := p.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if state.Get().Phase() != PhaseUnknown {
		t.Fatalf("state written after cancel: %+v", state.Get())
	}
}

func TestFetcherPlayingTimestampFallsBackToNow(t *testing.T) {
	now := time.UnixMilli(1_800_000_000_000)
	f := NewFetcher(stubPlayer{current: &spotify.CurrentlyPlaying{IsPlaying: true, Item: &spotify.TrackItem{Name: "x"}}})
	f.now = func() time.Time { return now }

	res, err := f.Fetch(context.Background(), "t")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Found || res.Track.Timestamp == nil || *res.Track.Timestamp != now.UnixMilli() {
		t.Fatalf("result = %+v", res)
	}
}
