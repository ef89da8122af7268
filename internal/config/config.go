package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultServerPort        = "3000"
	defaultPollInterval      = 60 * time.Second
	defaultFreshnessInterval = 10 * time.Second
	defaultReloadDebounce    = 500 * time.Millisecond
)

// Config holds the application configuration.
type Config struct {
	ServerPort        string
	AllowedOrigins    []string
	LogLevel          logrus.Level
	PollInterval      time.Duration
	FreshnessInterval time.Duration
	VisitsDB          string
	ContentFile       string
	ContentDebounce   time.Duration
	Spotify           struct {
		ClientID     string
		ClientSecret string
		RefreshToken string
	}
}

// SpotifyEnabled reports whether all three Spotify secrets are present.
// A partial set disables the now-playing widget; it is not an error.
func (c *Config) SpotifyEnabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "" && c.Spotify.RefreshToken != ""
}

// VisitsEnabled reports whether a visits database is configured.
func (c *Config) VisitsEnabled() bool {
	return c.VisitsDB != ""
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Spotify.ClientID = strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID"))
	cfg.Spotify.ClientSecret = strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET"))
	cfg.Spotify.RefreshToken = strings.TrimSpace(os.Getenv("SPOTIFY_REFRESH_TOKEN"))

	cfg.ServerPort = os.Getenv("SERVER_PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = defaultServerPort
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	cfg.LogLevel = logrus.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			logrus.WithField("level", raw).Warn("unknown LOG_LEVEL, using info")
		} else {
			cfg.LogLevel = level
		}
	}

	var err error
	if cfg.PollInterval, err = duration("POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.FreshnessInterval, err = duration("FRESHNESS_INTERVAL", defaultFreshnessInterval); err != nil {
		return nil, err
	}
	if cfg.ContentDebounce, err = duration("CONTENT_RELOAD_DEBOUNCE", defaultReloadDebounce); err != nil {
		return nil, err
	}

	cfg.VisitsDB = strings.TrimSpace(os.Getenv("VISITS_DB"))
	cfg.ContentFile = strings.TrimSpace(os.Getenv("CONTENT_FILE"))

	return cfg, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}
