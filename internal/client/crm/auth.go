package crm

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"crmsync/internal/config"
)

// TokenRefresher exchanges a long-lived refresh token for a short-lived
// access token. One exchange per account per run.
type TokenRefresher struct {
	conf *oauth2.Config
}

func NewTokenRefresher(cfg config.CRMConfig) *TokenRefresher {
	return &TokenRefresher{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, err
	}
	return tok.AccessToken, tok.Expiry, nil
}
