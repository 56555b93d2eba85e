package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bddkit/internal/transport"
	"bddkit/internal/world"
)

type echoed struct {
	Method        string `json:"method"`
	ContentType   string `json:"contentType"`
	Authorization string `json:"authorization"`
	XTrace        string `json:"xTrace"`
	Body          string `json:"body"`
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.HandleFunc("/echo", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoed{
			Method:        req.Method,
			ContentType:   req.Header.Get("Content-Type"),
			Authorization: req.Header.Get("Authorization"),
			XTrace:        req.Header.Get("X-Trace"),
			Body:          string(body),
		})
	})
	r.Get("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIAdapter_SendJSON(t *testing.T) {
	srv := newEchoServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))
	w := world.New()
	w.Headers["Authorization"] = "Bearer world"
	w.Headers["X-Trace"] = "world"

	resp, err := api.SendJSON(context.Background(), w, http.MethodPost, "/echo",
		map[string]any{"name": "widget"}, map[string]string{"X-Trace": "call"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Same(t, resp, w.Last)

	obj, ok := resp.JSON.(map[string]any)
	require.True(t, ok, "expected JSON object, got %T", resp.JSON)
	assert.Equal(t, "POST", obj["method"])
	assert.Equal(t, "application/json", obj["contentType"])
	assert.Equal(t, "Bearer world", obj["authorization"])
	assert.Equal(t, "call", obj["xTrace"], "call headers override world headers")
	assert.JSONEq(t, `{"name":"widget"}`, obj["body"].(string))
}

func TestAPIAdapter_SendJSONRawString(t *testing.T) {
	srv := newEchoServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))
	w := world.New()

	resp, err := api.SendJSON(context.Background(), w, http.MethodPut, "/echo", `{"a":1}`, nil)
	require.NoError(t, err)

	obj := resp.JSON.(map[string]any)
	assert.Equal(t, `{"a":1}`, obj["body"])
}

func TestAPIAdapter_SendJSONWithoutBody(t *testing.T) {
	srv := newEchoServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))

	resp, err := api.SendJSON(context.Background(), world.New(), http.MethodGet, "/echo", nil, nil)
	require.NoError(t, err)

	obj := resp.JSON.(map[string]any)
	assert.Equal(t, "", obj["contentType"])
	assert.Equal(t, "", obj["body"])
}

func TestAPIAdapter_SendForm(t *testing.T) {
	srv := newEchoServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))

	resp, err := api.SendForm(context.Background(), world.New(), http.MethodPost, "/echo",
		map[string]string{"username": "admin"}, nil)
	require.NoError(t, err)

	obj := resp.JSON.(map[string]any)
	assert.Equal(t, "application/x-www-form-urlencoded", obj["contentType"])
	assert.Equal(t, "username=admin", obj["body"])
}

func TestAPIAdapter_NonJSONResponses(t *testing.T) {
	srv := newEchoServer(t)
	api := NewAPIAdapter(transport.New(srv.URL))
	w := world.New()

	resp, err := api.SendJSON(context.Background(), w, http.MethodGet, "/plain", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Nil(t, resp.JSON)
	assert.Equal(t, "text/plain", resp.ContentType)

	resp, err = api.SendJSON(context.Background(), w, http.MethodGet, "/empty", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.JSON)
	assert.Same(t, resp, w.Last)
}
