// Command healthcheck probes the service's /health endpoint for container
// HEALTHCHECK instructions. It exits non-zero when the service is unhealthy.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	defaultPort    = "3000"
	requestTimeout = 5 * time.Second
)

type health struct {
	Status     string `json:"status"`
	NowPlaying bool   `json:"nowPlaying"`
	Visits     bool   `json:"visits"`
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	h, err := probe(ctx, port())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		cancel()
		os.Exit(1)
	}

	_, _ = fmt.Fprintf(os.Stdout, "ok (nowPlaying=%t visits=%t)\n", h.NowPlaying, h.Visits)
}

func port() string {
	if p := os.Getenv("SERVER_PORT"); p != "" {
		return p
	}
	return defaultPort
}

func probe(ctx context.Context, port string) (*health, error) {
	url := fmt.Sprintf("http://localhost:%s/health", port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var h health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("could not decode health response: %w", err)
	}
	if h.Status != "ok" {
		return nil, fmt.Errorf("service reported status %q", h.Status)
	}
	return &h, nil
}
