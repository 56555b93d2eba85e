package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bddkit/internal/config"
	"bddkit/internal/transport"
	"bddkit/internal/world"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post(config.DefaultLoginPath, func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.PostForm.Get("username") + ":" + req.PostForm.Get("password") {
		case "admin:admin":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "admin-token"})
		case "jane:secret":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "user-token"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"bad credentials"}`))
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newAuth(t *testing.T, cfg config.Config, ui *fakeUI) *AuthAdapter {
	srv := newLoginServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))
	if ui == nil {
		return NewAuthAdapter(api, nil, cfg)
	}
	return NewAuthAdapter(api, ui, cfg)
}

func TestAuthAdapter_APILogin(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.User = config.Credentials{Username: "jane", Password: "secret"}
	auth := newAuth(t, cfg, nil)

	w := world.New()
	require.NoError(t, auth.APILoginAsAdmin(context.Background(), w))
	assert.Equal(t, "Bearer admin-token", w.Headers["Authorization"])

	require.NoError(t, auth.APILoginAsUser(context.Background(), w))
	assert.Equal(t, "Bearer user-token", w.Headers["Authorization"])
}

func TestAuthAdapter_APILoginFailure(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.User = config.Credentials{Username: "jane", Password: "wrong"}
	auth := newAuth(t, cfg, nil)

	w := world.New()
	err := auth.APILoginAsUser(context.Background(), w)
	require.Error(t, err)

	var loginErr *LoginError
	require.True(t, errors.As(err, &loginErr))
	assert.Equal(t, "user", loginErr.Role)
	assert.Equal(t, http.StatusUnauthorized, loginErr.Status)
	assert.Contains(t, loginErr.Body, "bad credentials")
	assert.Contains(t, err.Error(), "401")
	assert.NotContains(t, w.Headers, "Authorization")
}

type fakeUI struct {
	calls []string
	fail  string
}

func (f *fakeUI) record(call string) error {
	f.calls = append(f.calls, call)
	if f.fail != "" && f.fail == call {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeUI) Goto(_ context.Context, path string) error { return f.record("goto " + path) }
func (f *fakeUI) Click(_ context.Context, selector string) error {
	return f.record("click " + selector)
}
func (f *fakeUI) Fill(_ context.Context, selector, value string) error {
	return f.record("fill " + selector + "=" + value)
}
func (f *fakeUI) Text(context.Context, string) (string, error) { return "", nil }
func (f *fakeUI) WaitVisible(context.Context, string) error { return nil }
func (f *fakeUI) URL(context.Context) (string, error) { return "", nil }

func TestAuthAdapter_UILoginAsAdmin(t *testing.T) {
	cfg := config.GetDefaultConfig()
	ui := &fakeUI{}
	auth := newAuth(t, cfg, ui)

	require.NoError(t, auth.UILoginAsAdmin(context.Background()))
	assert.Equal(t, []string{
		"goto /login",
		`fill input[name="username"]=admin`,
		`fill input[name="password"]=admin`,
		`click button[type="submit"]`,
	}, ui.calls)
}

func TestAuthAdapter_UILoginStopsOnError(t *testing.T) {
	cfg := config.GetDefaultConfig()
	ui := &fakeUI{fail: `fill input[name="username"]=admin`}
	auth := newAuth(t, cfg, ui)

	err := auth.UILoginAsAdmin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill username")
	assert.Len(t, ui.calls, 2)
}

func TestAuthAdapter_UILoginWithoutUI(t *testing.T) {
	auth := newAuth(t, config.GetDefaultConfig(), nil)
	assert.ErrorIs(t, auth.UILoginAsAdmin(context.Background()), ErrNoUI)
}
