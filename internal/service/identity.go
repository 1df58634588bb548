package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/pkg/config"
)

// Module exports the identity client providers to Fx.
var Module = fx.Module("service",
	fx.Provide(
		NewHTTPClient,
		NewIdentityClient,
	),
)

// IdentityAPI is the remote contract the onboarding flows consume.
// Operations returning a token return the raw bearer string; an empty
// token on a reset is legal (the reset endpoint may omit it).
type IdentityAPI interface {
	LookupIdentifier(ctx context.Context, identifier string) (*model.UserDetails, error)
	SubmitPassword(ctx context.Context, identifier, password string) (string, error)
	SetupPassword(ctx context.Context, req SetupPasswordRequest) (string, error)
	SecurityQuestion(ctx context.Context, userID string) (*model.RecoveryUser, error)
	VerifyAnswer(ctx context.Context, userID, answer string) error
	ResetPassword(ctx context.Context, userID, newPassword string) (string, error)
	SubmitProfile(ctx context.Context, form model.RegisterForm) (*model.CompleteUser, error)
	Me(ctx context.Context) (*model.Account, error)
	Healthy(ctx context.Context) error
}

// APIError is a business rejection carried in an {error} payload. Its
// message is server-authored and shown to the user verbatim.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// SetupPasswordRequest is the first-time credential setup payload.
type SetupPasswordRequest struct {
	UserID           string                 `json:"userId"`
	SecurityQuestion model.SecurityQuestion `json:"securityQuestion"`
	SecurityAnswer   string                 `json:"securityAnswer"`
	Password         string                 `json:"password"`
}

// Client talks JSON over HTTP to the membership backend. Requests are
// bearer-authenticated when a session token exists, anonymous
// otherwise.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  data.TokenStore
	l       *zap.Logger
}

var _ IdentityAPI = (*Client)(nil)

// NewIdentityClient builds the API client from config.
func NewIdentityClient(cfg *config.Bootstrap, httpClient *http.Client, tokens data.TokenStore, logger *zap.Logger) (IdentityAPI, error) {
	if cfg.API == nil || cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		l:       logger,
	}, nil
}

func (c *Client) LookupIdentifier(ctx context.Context, identifier string) (*model.UserDetails, error) {
	var out struct {
		User *userPayload `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/identifier", map[string]string{
		"identifier": identifier,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("identifier lookup returned no user")
	}
	return out.User.toModel(), nil
}

func (c *Client) SubmitPassword(ctx context.Context, identifier, password string) (string, error) {
	var out tokenPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) SetupPassword(ctx context.Context, req SetupPasswordRequest) (string, error) {
	var out tokenPayload
	if err := c.do(ctx, http.MethodPost, "/auth/setup", req, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) SecurityQuestion(ctx context.Context, userID string) (*model.RecoveryUser, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	var out struct {
		User *struct {
			ID               string                 `json:"id"`
			Name             string                 `json:"name"`
			SecurityQuestion model.SecurityQuestion `json:"securityQuestion"`
		} `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/security-question/"+userID, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("security question lookup returned no user")
	}
	return &model.RecoveryUser{
		ID:               out.User.ID,
		Name:             out.User.Name,
		SecurityQuestion: out.User.SecurityQuestion,
	}, nil
}

func (c *Client) VerifyAnswer(ctx context.Context, userID, answer string) error {
	// Success is the absence of an error payload.
	return c.do(ctx, http.MethodPost, "/auth/verify-answer", map[string]string{
		"userId": userID,
		"answer": answer,
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string) (string, error) {
	var out tokenPayload
	err := c.do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"userId":      userID,
		"newPassword": newPassword,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) SubmitProfile(ctx context.Context, form model.RegisterForm) (*model.CompleteUser, error) {
	var out struct {
		User *model.CompleteUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/members/profile", form, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("profile submission returned no user")
	}
	return out.User, nil
}

func (c *Client) Me(ctx context.Context) (*model.Account, error) {
	var out model.Account
	if err := c.do(ctx, http.MethodGet, "/members/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do performs one JSON round trip. A response whose body carries an
// {error} field becomes an *APIError whatever the status code; any
// other failure surfaces as a plain error for the flows to treat as a
// transport problem.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Get(ctx)
	if err != nil && !errors.Is(err, data.ErrNoSession) {
		return fmt.Errorf("read session: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	if envelope.Error != "" {
		return &APIError{Message: envelope.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// userPayload is the wire form of the identifier lookup result.
type userPayload struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	PhotoURL           *string                  `json:"photoUrl"`
	VerificationStatus model.VerificationStatus `json:"verificationStatus"`
	HasPassword        bool                     `json:"hasPassword"`
}

func (p *userPayload) toModel() *model.UserDetails {
	return &model.UserDetails{
		ID:                 p.ID,
		Name:               p.Name,
		PhotoURL:           p.PhotoURL,
		VerificationStatus: p.VerificationStatus,
		HasPassword:        p.HasPassword,
	}
}

type tokenPayload struct {
	Token string `json:"token"`
}
