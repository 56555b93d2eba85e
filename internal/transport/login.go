package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoToken is returned when a login response carries no access_token.
var ErrNoToken = errors.New("login response has no access_token")

// LoginResult is the outcome of a form login.
type LoginResult struct {
	Token  string
	Status int
	Body   []byte
}

// FormLogin posts username and password form-encoded to path and extracts
// the access_token string from the JSON response. A missing token returns
// ErrNoToken together with the result so callers can report status and body.
func FormLogin(ctx context.Context, r Requester, path, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := r.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: strings.NewReader(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Status: resp.Status, Body: resp.Body}
	var payload struct {
		AccessToken any `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return result, ErrNoToken
	}
	token, ok := payload.AccessToken.(string)
	if !ok || token == "" {
		return result, ErrNoToken
	}
	result.Token = token
	return result, nil
}
