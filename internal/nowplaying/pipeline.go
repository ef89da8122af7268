package nowplaying

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"skidoodle/postcard/internal/spotify"
)

// TokenSource hands out a fresh access token per call.
type TokenSource interface {
	Exchange(ctx context.Context) (string, error)
}

// Pipeline runs one token exchange followed by one fetch and stores the result.
type Pipeline struct {
	creds   spotify.Credentials
	tokens  TokenSource
	fetcher *Fetcher
	state   *State
	log     logrus.FieldLogger
}

// NewPipeline wires a pipeline. With incomplete creds every Sync is a no-op.
func NewPipeline(creds spotify.Credentials, tokens TokenSource, fetcher *Fetcher, state *State, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		creds:   creds,
		tokens:  tokens,
		fetcher: fetcher,
		state:   state,
		log:     log,
	}
}

// Enabled reports whether the pipeline will touch the network.
func (p *Pipeline) Enabled() bool {
	return p.creds.Complete()
}

// Sync performs one cycle. State is only written when a track was found and
// ctx is still live, so a cycle finishing after Stop leaves no trace.
func (p *Pipeline) Sync(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	token, err := p.tokens.Exchange(ctx)
	if err != nil {
		return fmt.Errorf("exchange token: %w", err)
	}

	result, err := p.fetcher.Fetch(ctx, token)
	if err != nil {
		return fmt.Errorf("fetch now playing: %w", err)
	}
	if !result.Found {
		p.log.Debug("spotify reported nothing playing and no history")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return nil
	}

	p.state.Set(result.Track)
	p.log.WithFields(logrus.Fields{
		"phase":  result.Track.Phase(),
		"track":  result.Track.Title,
		"artist": result.Track.Artist,
	}).Debug("now playing updated")
	return nil
}
