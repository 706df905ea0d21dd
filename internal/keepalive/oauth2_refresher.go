package keepalive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const defaultTokenLifetime = time.Hour

// Prober confirms that a freshly issued access token is accepted by the AI service.
type Prober interface {
	Probe(ctx context.Context, accessToken string) error
}

// OAuth2Refresher exchanges the stored refresh token for a new access token.
type OAuth2Refresher struct {
	config *oauth2.Config
	prober Prober
}

func NewOAuth2Refresher(config *oauth2.Config, prober Prober) *OAuth2Refresher {
	return &OAuth2Refresher{config: config, prober: prober}
}

func (r *OAuth2Refresher) Refresh(ctx context.Context, current Credentials) (Credentials, error) {
	if current.RefreshToken == "" {
		return Credentials{}, errors.New("no refresh token stored")
	}

	// An already expired token forces the source to hit the token endpoint.
	stale := &oauth2.Token{
		RefreshToken: current.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	token, err := r.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return Credentials{}, fmt.Errorf("oauth2 refresh failed: %w", err)
	}

	next := Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if next.ExpiresAt.IsZero() {
		next.ExpiresAt = time.Now().Add(defaultTokenLifetime)
	}

	if r.prober != nil {
		if err := r.prober.Probe(ctx, next.AccessToken); err != nil {
			return Credentials{}, fmt.Errorf("probe refreshed session failed: %w", err)
		}
	}
	return next, nil
}
