// Package authapi is the HTTP client for the authentication backend used by
// the login and signup forms.
//
// Every response is wrapped in an envelope ({status, statusCode, message,
// data}). Non-2xx responses are returned as *form.Failure carrying the
// server's message, so a submit action built on this client settles the
// form's submission state with a presentable reason.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/form"
)

const (
	// DefaultBaseURL is the coursework backend.
	DefaultBaseURL = "https://umc-web.kyeoungwoon.kr/"
	// DefaultTimeout bounds each request when the caller supplies no client.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Endpoint paths relative to the base URL.
const (
	PathSignin = "v1/auth/signin"
	PathSignup = "v1/auth/signup"
	PathMe     = "v1/users/me"
)

// ErrNoToken is returned by MyInfo when called without an access token.
var ErrNoToken = errors.New("authapi: access token is required")

// Envelope is the response wrapper used by every endpoint.
type Envelope[T any] struct {
	Status     bool            `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message,omitempty"`
	Data       T               `json:"data"`
}

// SigninRequest is the body of POST /v1/auth/signin.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse carries the issued tokens.
type SigninResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignupRequest is the body of POST /v1/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// User is the account representation returned by signup and /v1/users/me.
type User struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Bio       *string    `json:"bio"`
	Avatar    *string    `json:"avatar"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the authentication backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// New returns a Client rooted at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("authapi: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("authapi: base url %q must be http or https", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Signin exchanges credentials for tokens.
func (c *Client) Signin(ctx context.Context, req SigninRequest) (SigninResponse, error) {
	var out SigninResponse
	err := c.do(ctx, http.MethodPost, PathSignin, "", req, &out)
	return out, err
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPost, PathSignup, "", req, &out)
	return out, err
}

// MyInfo returns the account that owns token.
func (c *Client) MyInfo(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, ErrNoToken
	}
	var out User
	err := c.do(ctx, http.MethodGet, PathMe, token, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authapi: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("authapi: request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authapi: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("authapi: read response: %w", err)
	}
	c.logger.Debug("authapi response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failureFromResponse(resp.StatusCode, data)
	}

	env := Envelope[json.RawMessage]{}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("authapi: decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("authapi: decode data: %w", err)
	}
	return nil
}

// failureFromResponse turns an error body into a *form.Failure. The message
// may be a string or a list of strings; object-shaped data is kept as the
// per-path payload.
func failureFromResponse(status int, data []byte) *form.Failure {
	env := Envelope[json.RawMessage]{}
	if err := json.Unmarshal(data, &env); err != nil {
		return form.NewFailure(status, fallbackMessage(status), nil)
	}

	messages := decodeMessages(env.Message)
	payload := decodePayload(env.Data)

	message := fallbackMessage(status)
	if len(messages) > 0 {
		message = messages[0]
		if len(messages) > 1 {
			if payload == nil {
				payload = make(map[string][]string)
			}
			payload[""] = append(payload[""], messages[1:]...)
		}
	}
	return form.NewFailure(status, message, payload)
}

func decodeMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		out := many[:0]
		for _, msg := range many {
			if msg = strings.TrimSpace(msg); msg != "" {
				out = append(out, msg)
			}
		}
		return out
	}
	return nil
}

func decodePayload(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	payload := make(map[string][]string)
	for key, value := range fields {
		switch typed := value.(type) {
		case string:
			payload[key] = append(payload[key], typed)
		case []any:
			for _, item := range typed {
				if msg, ok := item.(string); ok {
					payload[key] = append(payload[key], msg)
				}
			}
		}
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("unexpected status %d", status)
}
