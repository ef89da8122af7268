package visits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second

	// maxSessions bounds the set of sessions already logged. A session that
	// falls out of the set is logged again on its next visit.
	maxSessions = 100_000
)

// Logger writes one visit per session in the background. Write failures are
// dropped; the page never learns about them.
type Logger struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time

	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
	wg   sync.WaitGroup
}

// NewLogger creates a logger. A nil store disables visit logging.
func NewLogger(store Store, log logrus.FieldLogger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{
		store: store,
		log:   log,
		now:   time.Now,
		seen:  expirable.NewLRU[string, struct{}](maxSessions, nil, sessionMaxAge),
	}
}

// Enabled reports whether visits are recorded.
func (l *Logger) Enabled() bool {
	return l.store != nil
}

// Log records a visit for sessionID unless one was already recorded.
// It returns immediately; the write happens on its own goroutine.
// The return value reports whether a write was started.
func (l *Logger) Log(sessionID string, info ClientInfo) bool {
	if l.store == nil || sessionID == "" {
		return false
	}
	if !l.markSeen(sessionID) {
		return false
	}

	visit := Visit{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		Timestamp:        l.now().UTC(),
		UserAgent:        info.UserAgent,
		Platform:         info.Platform,
		ScreenResolution: info.ScreenResolution,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.store.Add(ctx, visit); err != nil {
			l.log.WithError(err).Debug("visit write discarded")
		}
	}()
	return true
}

// markSeen records sessionID and reports whether it was new.
func (l *Logger) markSeen(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen.Get(sessionID); ok {
		return false
	}
	l.seen.Add(sessionID, struct{}{})
	return true
}

// Wait blocks until every started write has finished.
func (l *Logger) Wait() {
	l.wg.Wait()
}
