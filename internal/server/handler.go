package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"skidoodle/postcard/internal/portfolio"
	"skidoodle/postcard/internal/visits"
)

const maxVisitBody = 4 << 10

// healthResponse reports liveness and which optional features are on.
type healthResponse struct {
	Status     string `json:"status"`
	NowPlaying bool   `json:"nowPlaying"`
	Visits     bool   `json:"visits"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		NowPlaying: s.nowPlayingEnabled,
		Visits:     s.visits.Enabled(),
	})
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, http.StatusOK, s.relay.Snapshot())
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.content.Catalog().Projects())
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.content.Catalog().FilterSkills(r.URL.Query().Get("type")))
}

func (s *Server) handleSkillCategories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, portfolio.Categories)
}

// visitResponse never carries an error: visit logging is invisible to the page.
type visitResponse struct {
	Session string `json:"session"`
	Logged  bool   `json:"logged"`
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var info visits.ClientInfo
	body := http.MaxBytesReader(w, r.Body, maxVisitBody)
	if err := json.NewDecoder(body).Decode(&info); err != nil && !errors.Is(err, io.EOF) {
		s.log.WithError(err).Debug("ignoring malformed visit body")
	}
	if info.UserAgent == "" {
		info.UserAgent = r.UserAgent()
	}

	session, fresh := visits.SessionID(r)
	if fresh {
		visits.SetSessionCookie(w, session, r.TLS != nil)
	}

	s.writeJSON(w, http.StatusAccepted, visitResponse{
		Session: session,
		Logged:  s.visits.Log(session, info),
	})
}

// handleWebsocket upgrades the connection and streams playback state.
// Plain HTTP requests get 426 so probes can tell the endpoint is alive.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Upgrade", "websocket")
		w.Header().Set("Connection", "Upgrade")
		w.WriteHeader(http.StatusUpgradeRequired)
		if _, err := w.Write([]byte("426 Upgrade Required")); err != nil {
			s.log.WithError(err).Warn("failed to write upgrade required response")
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.WithError(err).WithField("origin", r.Header.Get("Origin")).Warn("websocket upgrade rejected")
		return
	}

	client := newClient(s.hub, conn, s.log)

	// Send the last known state immediately upon connection.
	initial, err := json.Marshal(s.relay.Snapshot())
	if err == nil {
		client.send <- initial
	}

	ctx := s.ctx
	select {
	case s.hub.register <- client:
	case <-ctx.Done():
		_ = conn.Close()
		return
	}

	go client.writePump(ctx)
	go client.readPump(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("failed to write response")
	}
}
