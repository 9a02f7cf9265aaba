package gotrue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"

	"github.com/cygnusgroup/backoffice/core"
)

// Provider verifies credentials against a GoTrue compatible auth server.
type Provider struct {
	client *client.Client
	apiKey string
}

var _ core.CredentialVerifier = (*Provider)(nil)

type Config struct {
	URL     string // e.g. https://<project>.supabase.co/auth/v1
	APIKey  string
	Timeout time.Duration
}

func New(cfg Config) (*Provider, error) {
	if cfg.URL == "" {
		return nil, errors.New("gotrue: url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}

	c := client.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout)

	return &Provider{client: c, apiKey: cfg.APIKey}, nil
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID               string         `json:"id"`
		Email            string         `json:"email"`
		EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
		UserMetadata     map[string]any `json:"user_metadata"`
	} `json:"user"`
}

func (p *Provider) headers(extra map[string]string) map[string]string {
	h := map[string]string{"apikey": p.apiKey}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// Verify exchanges email and password for an access token. The token is
// kept on the principal so Revoke can end that provider session.
func (p *Provider) Verify(ctx context.Context, email, secret string) (*core.Principal, error) {
	resp, err := p.client.Post("/token", client.Config{
		Ctx:    ctx,
		Header: p.headers(nil),
		Param:  map[string]string{"grant_type": "password"},
		Body:   tokenRequest{Email: core.NormalizeEmail(email), Password: secret},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}
	defer resp.Close()

	switch status := resp.StatusCode(); {
	case status == 400, status == 401, status == 422:
		return nil, core.ErrInvalidCredentials
	case status != 200:
		return nil, fmt.Errorf("%w: token endpoint returned %d", core.ErrProviderUnavailable, status)
	}

	var body tokenResponse
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %w", core.ErrProviderUnavailable, err)
	}
	if body.User.ID == "" {
		return nil, fmt.Errorf("%w: token response without user id", core.ErrProviderUnavailable)
	}

	name, _ := body.User.UserMetadata["name"].(string)

	return &core.Principal{
		ID:            body.User.ID,
		Email:         core.NormalizeEmail(body.User.Email),
		EmailVerified: body.User.EmailConfirmedAt != nil,
		Name:          name,
		SessionToken:  body.AccessToken,
	}, nil
}

// Revoke logs the access token out. An already invalid token is not an error.
func (p *Provider) Revoke(ctx context.Context, principal *core.Principal) error {
	if principal == nil || principal.SessionToken == "" {
		return nil
	}

	resp, err := p.client.Post("/logout", client.Config{
		Ctx:    ctx,
		Header: p.headers(map[string]string{"Authorization": "Bearer " + principal.SessionToken}),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}
	defer resp.Close()

	switch status := resp.StatusCode(); {
	case status >= 200 && status < 300, status == 401, status == 404:
		return nil
	default:
		return fmt.Errorf("%w: logout returned %d", core.ErrProviderUnavailable, status)
	}
}
