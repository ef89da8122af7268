package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const apiBaseURL = "https://api.spotify.com/v1"

// Client is a thread-safe client for the player endpoints of the Spotify API.
// It holds no token: each call is authorized with the access token it is given.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        logrus.FieldLogger
}

// NewClient creates a new Spotify API client. An empty baseURL selects the public API.
func NewClient(httpClient *http.Client, baseURL string, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// CurrentlyPlaying fetches the user's currently playing track.
// Any status other than 200 (including 204 when nothing is playing) is
// normalized to an empty CurrentlyPlaying so the caller can fall back.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*CurrentlyPlaying, error) {
	resp, err := c.get(ctx, accessToken, c.baseURL+"/me/player/currently-playing")
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Debug("currently playing returned no track")
		return &CurrentlyPlaying{IsPlaying: false, Item: nil}, nil
	}

	var currentlyPlaying CurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&currentlyPlaying); err != nil {
		return nil, fmt.Errorf("spotify: decode currently playing: %w", err)
	}

	return &currentlyPlaying, nil
}

// RecentlyPlayed fetches up to limit entries of the user's play history.
func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string, limit int) (*RecentlyPlayed, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, accessToken, c.baseURL+"/me/player/recently-played?"+query.Encode())
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "recently-played", StatusCode: resp.StatusCode}
	}

	var recentlyPlayed RecentlyPlayed
	if err := json.NewDecoder(resp.Body).Decode(&recentlyPlayed); err != nil {
		return nil, fmt.Errorf("spotify: decode recently played: %w", err)
	}

	return &recentlyPlayed, nil
}

func (c *Client) get(ctx context.Context, accessToken, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("spotify: %w", err)
	}

	resp, err := c.authorized(accessToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify: %w", err)
	}
	return resp, nil
}

// authorized wraps the base client so every request carries "Authorization: Bearer <token>".
func (c *Client) authorized(accessToken string) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.log.WithError(err).Warn("failed to close spotify api response body")
	}
}
