package spotify

import (
	"errors"
	"fmt"
)

// ErrIncompleteCredentials is returned when an exchange is attempted without all secrets.
var ErrIncompleteCredentials = errors.New("spotify: incomplete credentials")

// StatusError reports a non-success HTTP status from the Spotify API.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: %s returned status %d", e.Endpoint, e.StatusCode)
}
