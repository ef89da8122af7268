// Package visits records anonymous page visits, one per browser session.
package visits

import (
	"context"
	"time"
)

// Visit is one record in the visits collection.
type Visit struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	Timestamp        time.Time `json:"timestamp"`
	UserAgent        string    `json:"userAgent"`
	Platform         string    `json:"platform"`
	ScreenResolution string    `json:"screenResolution"`
}

// ClientInfo is what the browser reports about itself.
type ClientInfo struct {
	UserAgent        string `json:"userAgent"`
	Platform         string `json:"platform"`
	ScreenResolution string `json:"screenResolution"`
}

// Store persists visit records.
type Store interface {
	Add(ctx context.Context, v Visit) error
}
