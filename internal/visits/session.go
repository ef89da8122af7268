package visits

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the anonymous session identity.
const SessionCookie = "postcard_session"

const sessionMaxAge = 30 * 24 * time.Hour

// SessionID returns the anonymous session id carried by r. When r has no
// valid session cookie a new id is minted and fresh is true.
func SessionID(r *http.Request) (id string, fresh bool) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			return parsed.String(), false
		}
	}
	return uuid.NewString(), true
}

// SetSessionCookie attaches the session id to the response.
func SetSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
