package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bddkit/internal/config"
	"bddkit/internal/ports"
	"bddkit/internal/world"
	"bddkit/pkg/logging"
)

// ErrNoUI is returned by UI logins when no UI adapter is configured.
var ErrNoUI = errors.New("no UI adapter configured")

// LoginError reports a login that produced no token.
type LoginError struct {
	Role   string
	Status int
	Body   string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("%s login failed with status %d: %s", e.Role, e.Status, e.Body)
}

// AuthAdapter implements ports.Auth. API logins go through the API port so
// the response lands on the World like any other request.
type AuthAdapter struct {
	api       ports.API
	ui        ports.UI
	loginPath string
	admin     config.Credentials
	user      config.Credentials
	browser   config.BrowserSettings
}

// NewAuthAdapter creates a new auth adapter
func NewAuthAdapter(api ports.API, ui ports.UI, cfg config.Config) *AuthAdapter {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = config.DefaultLoginPath
	}
	return &AuthAdapter{
		api:       api,
		ui:        ui,
		loginPath: loginPath,
		admin:     cfg.Admin,
		user:      cfg.User,
		browser:   cfg.Browser,
	}
}

// APILoginAsAdmin logs in with the admin credentials.
func (a *AuthAdapter) APILoginAsAdmin(ctx context.Context, w *world.World) error {
	return a.apiLogin(ctx, w, "admin", a.admin)
}

// APILoginAsUser logs in with the regular user credentials.
func (a *AuthAdapter) APILoginAsUser(ctx context.Context, w *world.World) error {
	return a.apiLogin(ctx, w, "user", a.user)
}

func (a *AuthAdapter) apiLogin(ctx context.Context, w *world.World, role string, creds config.Credentials) error {
	resp, err := a.api.SendForm(ctx, w, http.MethodPost, a.loginPath, map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s login request failed: %w", role, err)
	}

	token := accessToken(resp.JSON)
	if token == "" {
		return &LoginError{Role: role, Status: resp.Status, Body: resp.Text}
	}

	w.Headers["Authorization"] = "Bearer " + token
	logging.Debug("Auth", "Logged in as %s (%s)", role, creds.Username)
	return nil
}

// UILoginAsAdmin fills and submits the browser login form.
func (a *AuthAdapter) UILoginAsAdmin(ctx context.Context) error {
	if a.ui == nil {
		return ErrNoUI
	}
	b := a.browser
	if err := a.ui.Goto(ctx, b.LoginPath); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := a.ui.Fill(ctx, b.UsernameSelector, a.admin.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := a.ui.Fill(ctx, b.PasswordSelector, a.admin.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := a.ui.Click(ctx, b.SubmitSelector); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	return nil
}

func accessToken(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	token, _ := obj["access_token"].(string)
	return token
}
