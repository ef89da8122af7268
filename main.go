package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"skidoodle/postcard/internal/config"
	"skidoodle/postcard/internal/nowplaying"
	"skidoodle/postcard/internal/portfolio"
	"skidoodle/postcard/internal/server"
	"skidoodle/postcard/internal/spotify"
	"skidoodle/postcard/internal/visits"
)

const spotifyTimeout = 10 * time.Second

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logrus.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logrus.StandardLogger()); err != nil {
		logrus.WithError(err).Error("server stopped with error")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	state := nowplaying.NewState()

	creds := spotify.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	}
	if cfg.SpotifyEnabled() {
		httpClient := &http.Client{Timeout: spotifyTimeout}
		pipeline := nowplaying.NewPipeline(
			creds,
			spotify.NewTokenExchanger(creds, httpClient, ""),
			nowplaying.NewFetcher(spotify.NewClient(httpClient, "", log)),
			state,
			log,
		)
		scheduler := nowplaying.NewScheduler(pipeline, cfg.PollInterval, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	} else {
		log.Info("spotify credentials not set, now playing disabled")
	}

	var visitStore visits.Store
	if cfg.VisitsEnabled() {
		store, err := visits.NewSQLiteStore(cfg.VisitsDB)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("error closing visits store")
			}
		}()
		visitStore = store
	} else {
		log.Info("VISITS_DB not set, visit logging disabled")
	}
	visitLogger := visits.NewLogger(visitStore, log)
	defer visitLogger.Wait()

	var content portfolio.Source = portfolio.Default()
	if cfg.ContentFile != "" {
		watcher, err := portfolio.NewWatcher(cfg.ContentFile, cfg.ContentDebounce, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("error closing content watcher")
			}
		}()
		content = watcher
	}

	srv := server.NewServer(server.Options{
		Addr:              net.JoinHostPort("", cfg.ServerPort),
		AllowedOrigins:    cfg.AllowedOrigins,
		State:             state,
		NowPlayingEnabled: cfg.SpotifyEnabled(),
		Content:           content,
		Visits:            visitLogger,
		FreshnessInterval: cfg.FreshnessInterval,
		Log:               log,
	})

	return srv.Run(ctx)
}
