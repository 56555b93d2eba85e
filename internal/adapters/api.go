package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"bddkit/internal/transport"
	"bddkit/internal/world"
)

// APIAdapter implements ports.API on top of a transport.Requester.
type APIAdapter struct {
	requester transport.Requester
}

// NewAPIAdapter creates a new API adapter
func NewAPIAdapter(r transport.Requester) *APIAdapter {
	return &APIAdapter{requester: r}
}

// SendJSON sends body as JSON. Strings, byte slices and json.RawMessage are
// sent verbatim; anything else is marshalled.
func (a *APIAdapter) SendJSON(ctx context.Context, w *world.World, method, path string, body any, headers map[string]string) (*world.Response, error) {
	var reader io.Reader
	h := map[string]string{"Accept": "application/json"}

	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		case []byte:
			raw = b
		case json.RawMessage:
			raw = b
		default:
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			raw = encoded
		}
		reader = bytes.NewReader(raw)
		h["Content-Type"] = "application/json"
	}

	return a.send(ctx, w, method, path, reader, h, headers)
}

// SendForm sends fields as application/x-www-form-urlencoded.
func (a *APIAdapter) SendForm(ctx context.Context, w *world.World, method, path string, fields map[string]string, headers map[string]string) (*world.Response, error) {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	h := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/x-www-form-urlencoded",
	}
	return a.send(ctx, w, method, path, strings.NewReader(form.Encode()), h, headers)
}

// send merges headers (defaults < world < call) and records the response
// on the World.
func (a *APIAdapter) send(ctx context.Context, w *world.World, method, path string, body io.Reader, defaults, headers map[string]string) (*world.Response, error) {
	merged := make(map[string]string, len(defaults)+len(w.Headers)+len(headers))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range w.Headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}

	resp, err := a.requester.Do(ctx, transport.Request{
		Method:  method,
		Path:    path,
		Headers: merged,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	out := &world.Response{
		Status:      resp.Status,
		Text:        string(resp.Body),
		Headers:     resp.Headers,
		ContentType: resp.ContentType(),
		JSON:        decodeJSON(resp),
	}
	w.Last = out
	return out, nil
}

// decodeJSON parses a JSON body, returning nil when the body is empty or
// not JSON.
func decodeJSON(resp *transport.Response) any {
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 {
		return nil
	}
	if !strings.Contains(resp.ContentType(), "json") && trimmed[0] != '{' && trimmed[0] != '[' {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}
	return v
}
