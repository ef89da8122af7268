package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"skidoodle/postcard/internal/nowplaying"
	"skidoodle/postcard/internal/portfolio"
	"skidoodle/postcard/internal/visits"
)

// Options configures a Server.
type Options struct {
	Addr              string
	AllowedOrigins    []string
	State             *nowplaying.State
	NowPlayingEnabled bool
	Content           portfolio.Source
	Visits            *visits.Logger
	FreshnessInterval time.Duration
	Log               logrus.FieldLogger
}

// Server is the HTTP front of the site: JSON API plus the now-playing websocket.
type Server struct {
	addr              string
	httpServer        *http.Server
	hub               *Hub
	relay             *Relay
	content           portfolio.Source
	visits            *visits.Logger
	nowPlayingEnabled bool
	originChecker     func(string) bool
	upgrader          websocket.Upgrader
	log               logrus.FieldLogger

	ctx context.Context
	wg  sync.WaitGroup
}

// NewServer creates a new, fully configured server.
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	state := opts.State
	if state == nil {
		state = nowplaying.NewState()
	}
	content := opts.Content
	if content == nil {
		content = portfolio.Default()
	}
	visitLogger := opts.Visits
	if visitLogger == nil {
		visitLogger = visits.NewLogger(nil, log)
	}

	hub := NewHub(log)
	allowedOrigins := opts.AllowedOrigins
	originChecker := func(origin string) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		return slices.Contains(allowedOrigins, origin)
	}

	s := &Server{
		addr:              opts.Addr,
		hub:               hub,
		relay:             NewRelay(state, hub, opts.FreshnessInterval, log),
		content:           content,
		visits:            visitLogger,
		nowPlayingEnabled: opts.NowPlayingEnabled,
		originChecker:     originChecker,
		log:               log,
		ctx:               context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.originChecker(r.Header.Get("Origin"))
		},
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /api/now-playing", s.handleNowPlaying)
	mux.HandleFunc("GET /api/projects", s.handleProjects)
	mux.HandleFunc("GET /api/skills", s.handleSkills)
	mux.HandleFunc("GET /api/skills/categories", s.handleSkillCategories)
	mux.HandleFunc("POST /api/visits", s.handleVisit)
	return s.cors(mux)
}

// Start launches the hub and relay. They stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.ctx = ctx
	s.wg.Add(2)

	// Subscribe before returning so no write after Start is missed.
	updates, unsubscribe := s.relay.state.Subscribe()
	s.relay.seed(s.relay.state.Get())

	go func() {
		defer s.wg.Done()
		s.hub.Run(ctx)
	}()

	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.relay.Run(ctx, updates)
	}()
}

// Wait blocks until the hub and relay have stopped.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Run starts the server and its components and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutdown signal received, stopping http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("http server shutdown error")
		}
	}()

	s.log.WithField("addr", s.addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.Wait()

	return nil
}

// cors lets allowed browser origins call the API with credentials, so the
// session cookie survives cross-origin visit logging.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originChecker(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
