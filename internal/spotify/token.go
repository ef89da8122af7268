package spotify

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const tokenURL = "https://accounts.spotify.com/api/token"

// TokenExchanger trades the long-lived refresh token for a short-lived access token.
// Access tokens are not cached: every Exchange performs a fresh grant.
type TokenExchanger struct {
	creds      Credentials
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewTokenExchanger builds an exchanger for creds. An empty url selects the
// public Spotify accounts endpoint; a nil httpClient selects http.DefaultClient.
func NewTokenExchanger(creds Credentials, httpClient *http.Client, url string) *TokenExchanger {
	if url == "" {
		url = tokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenExchanger{
		creds: creds,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: url,
				// Basic base64(clientId:clientSecret) with a form-encoded body.
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: httpClient,
	}
}

// Exchange performs one refresh_token grant and returns the access token.
func (e *TokenExchanger) Exchange(ctx context.Context) (string, error) {
	if !e.creds.Complete() {
		return "", ErrIncompleteCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := e.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: e.creds.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("spotify: token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("spotify: token exchange: empty access token")
	}
	return token.AccessToken, nil
}
