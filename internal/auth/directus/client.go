// Package directus talks to the hosted identity endpoint.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finx-auth/internal/auth"
	"finx-auth/internal/auth/credentials"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    trimmed,
		httpClient: httpClient,
	}
}

// BaseURL returns the endpoint root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type providerLoginRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	Email       string `json:"email,omitempty"`
}

// Login exchanges email and password for a token pair.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials) (auth.TokenResponse, error) {
	return c.tokenCall(ctx, "/auth/login", creds, auth.ErrInvalidCredentials)
}

// LoginWithProvider exchanges a provider access token for a token pair.
func (c *Client) LoginWithProvider(ctx context.Context, provider, accessToken, email string) (auth.TokenResponse, error) {
	return c.tokenCall(ctx, "/auth/login", providerLoginRequest{
		Provider:    provider,
		AccessToken: accessToken,
		Email:       email,
	}, auth.ErrInvalidCredentials)
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error) {
	return c.tokenCall(ctx, "/auth/refresh", refreshRequest{
		RefreshToken: refreshToken,
	}, auth.ErrTokenExpired)
}

// Logout invalidates the refresh token on the server.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.call(ctx, http.MethodPost, "/auth/logout", "", refreshRequest{
		RefreshToken: refreshToken,
	}, auth.ErrTokenExpired)
	return err
}

// Me fetches the profile of the account owning accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (auth.UserProfile, error) {
	data, err := c.call(ctx, http.MethodGet, "/users/me", accessToken, nil, auth.ErrTokenExpired)
	if err != nil {
		return auth.UserProfile{}, err
	}
	return auth.DecodeProfile(data)
}

// Do sends req with a bearer token and returns the raw response. The caller
// owns the response body.
func (c *Client) Do(req *http.Request, accessToken string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(req.Context(), err)
	}
	return resp, nil
}

func (c *Client) tokenCall(ctx context.Context, path string, payload any, unauthorized error) (auth.TokenResponse, error) {
	data, err := c.call(ctx, http.MethodPost, path, "", payload, unauthorized)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	var tokens auth.TokenResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("%w: tokens: %v", auth.ErrMalformedResponse, err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.Expires <= 0 {
		return auth.TokenResponse{}, fmt.Errorf("%w: tokens: missing access_token, refresh_token or expires", auth.ErrMalformedResponse)
	}
	return tokens, nil
}

// call performs the request and returns the envelope's data member.
// 401/403 responses are reported as unauthorized.
func (c *Client) call(ctx context.Context, method, path, bearer string, payload any, unauthorized error) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", path, transportError(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, errors.Join(auth.ErrNetwork, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w", path, mapStatus(resp.StatusCode, raw, unauthorized))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, auth.ErrMalformedResponse, err)
	}
	return env.Data, nil
}

func mapStatus(status int, payload []byte, unauthorized error) error {
	message := errorMessage(payload)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", unauthorized, message)
		}
		return unauthorized
	case status >= 500:
		return fmt.Errorf("%w: status %d", auth.ErrServerUnavailable, status)
	default:
		return &auth.APIError{Status: status, Message: message}
	}
}

func errorMessage(payload []byte) string {
	var parsed errorEnvelope
	if err := json.Unmarshal(payload, &parsed); err == nil && len(parsed.Errors) > 0 {
		return parsed.Errors[0].Message
	}
	return ""
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(auth.ErrNetwork, ctxErr)
	}
	return errors.Join(auth.ErrNetwork, err)
}
