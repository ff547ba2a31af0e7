// Package api is a typed client for the registration HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	availabilityhandler "regdesk/internal/availability/handler"
	registrationhandler "regdesk/internal/registration/handler"
	"regdesk/pkg/platform/httputil"
)

// ErrNetwork wraps transport failures: connection errors, timeouts and
// responses that are not the API's JSON envelope.
var ErrNetwork = errors.New("network error")

type (
	RegisterRequest = registrationhandler.RegisterRequest
	User            = registrationhandler.UserResponse
)

// Response is the server's {ok, message, errors} envelope.
type Response struct {
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ServerError is a well-formed failure envelope from the API.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to one regdesk server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client. timeout bounds each request end to end.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CheckUsername asks whether username is taken.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var out availabilityhandler.CheckResponse
	status, body, err := c.do(ctx, http.MethodPost, "/api/check-username",
		availabilityhandler.CheckRequest{Username: username})
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, envelopeError(status, body)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("%w: decode check response: %w", ErrNetwork, err)
	}
	return out.Taken, nil
}

// Register submits a registration. A rejection by the server is a Response
// with OK false, not an error; errors are transport failures.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Response, error) {
	_, body, err := c.do(ctx, http.MethodPost, "/api/register", req)
	if err != nil {
		return Response{}, err
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, fmt.Errorf("%w: decode register response: %w", ErrNetwork, err)
	}
	return out, nil
}

// Users lists every registration in insertion order.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/users", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, envelopeError(status, body)
	}
	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("%w: decode users: %w", ErrNetwork, err)
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxBodyBytes*16))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	return resp.StatusCode, body, nil
}

func envelopeError(status int, body []byte) error {
	var env Response
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
	return &ServerError{Status: status, Message: env.Message}
}
