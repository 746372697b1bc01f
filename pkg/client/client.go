// Package client is the REST client of the claims service. It persists the
// session through a TokenStore and maps error envelopes to typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	ProjectID string
	HTTP      Doer
	Tokens    TokenStore
	// Location renders and parses activity timestamps.
	Location *time.Location
	Now      func() time.Time
}

// Client talks to the claims service.
type Client struct {
	baseURL  string
	http     Doer
	tokens   TokenStore
	location *time.Location
	now      func() time.Time
}

// New builds a client. Missing options fall back to an in-memory token store,
// a 15 second http.Client and UTC.
func New(opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     opts.HTTP,
		tokens:   opts.Tokens,
		location: opts.Location,
		now:      opts.Now,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.tokens == nil {
		c.tokens = NewMemoryTokenStore(opts.ProjectID)
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Location returns the zone activity timestamps are read in.
func (c *Client) Location() *time.Location {
	return c.location
}

// Signup registers a pending account.
func (c *Client) Signup(ctx context.Context, req dto.SignupRequest) (*domain.User, error) {
	var out dto.UserEnvelope
	if err := c.do(ctx, http.MethodPost, "/signup", req, &out); err != nil {
		return nil, err
	}
	return out.User.ToDomain(), nil
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, nil, err
	}
	if out.Session == nil || out.User == nil {
		return nil, nil, fmt.Errorf("%w: login response without session", ErrUnavailable)
	}
	session := out.Session.ToDomain()
	if err := c.tokens.Save(session); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}
	return session, out.User.ToDomain(), nil
}

// GetSession resolves the stored token. It never fails: any problem yields
// nil values and clears the stored token.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, *domain.User) {
	stored, err := c.tokens.Load()
	if err != nil || stored == nil {
		if err != nil {
			_ = c.tokens.Clear()
		}
		return nil, nil
	}
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodGet, "/session", nil, &out); err != nil || out.User == nil || out.Session == nil {
		_ = c.tokens.Clear()
		return nil, nil
	}
	return out.Session.ToDomain(), out.User.ToDomain()
}

// Logout revokes the token server side when possible and clears the local
// session. It always succeeds.
func (c *Client) Logout(ctx context.Context) {
	if stored, err := c.tokens.Load(); err == nil && stored != nil {
		_ = c.do(ctx, http.MethodPost, "/logout", nil, nil)
	}
	_ = c.tokens.Clear()
}

// Users lists every profile (moderator only).
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out dto.UserListEnvelope
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(out.Users))
	for i := range out.Users {
		users = append(users, *out.Users[i].ToDomain())
	}
	return users, nil
}

// SetAccountStatus approves or rejects an account (moderator only).
func (c *Client) SetAccountStatus(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error) {
	var out dto.UserEnvelope
	body := dto.UpdateUserRequest{AccountStatus: string(status)}
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID), body, &out); err != nil {
		return nil, err
	}
	return out.User.ToDomain(), nil
}

// Claims lists every claim with activities and comments.
func (c *Client) Claims(ctx context.Context) ([]domain.Claim, error) {
	var out dto.ClaimListEnvelope
	if err := c.do(ctx, http.MethodGet, "/claims", nil, &out); err != nil {
		return nil, err
	}
	claims := make([]domain.Claim, 0, len(out.Claims))
	for i := range out.Claims {
		claims = append(claims, *out.Claims[i].ToDomain(c.location))
	}
	return claims, nil
}

// ClaimByTrackingNumber looks a claim up by its public code.
func (c *Client) ClaimByTrackingNumber(ctx context.Context, code string) (*domain.Claim, error) {
	var out dto.ClaimEnvelope
	if err := c.do(ctx, http.MethodGet, "/claims/tracking/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return out.Claim.ToDomain(c.location), nil
}

// CreateClaim registers a claim (moderator only).
func (c *Client) CreateClaim(ctx context.Context, req dto.CreateClaimRequest) (*domain.Claim, error) {
	return c.claimCall(ctx, http.MethodPost, "/claims", req)
}

// UpdateClaim applies a partial update.
func (c *Client) UpdateClaim(ctx context.Context, id string, req dto.UpdateClaimRequest) (*domain.Claim, error) {
	return c.claimCall(ctx, http.MethodPatch, "/claims/"+url.PathEscape(id), req)
}

// AssignClaim routes a claim to an externo (moderator only).
func (c *Client) AssignClaim(ctx context.Context, id, userID string, area domain.Area) (*domain.Claim, error) {
	return c.claimCall(ctx, http.MethodPost, "/claims/"+url.PathEscape(id)+"/assign", dto.AssignClaimRequest{UserID: userID, Area: string(area)})
}

// DeleteClaim removes a claim (moderator only).
func (c *Client) DeleteClaim(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/claims/"+url.PathEscape(id), nil, nil)
}

// AddActivity appends a work log entry and returns it as stored.
func (c *Client) AddActivity(ctx context.Context, id, descripcion, personal string) (*domain.Activity, error) {
	var out dto.ActivityEnvelope
	body := dto.CreateActivityRequest{
		Descripcion: descripcion,
		Personal:    personal,
		Fecha:       c.now().In(c.location).Format(domain.ActivityTimeLayout),
	}
	if err := c.do(ctx, http.MethodPost, "/claims/"+url.PathEscape(id)+"/activity", body, &out); err != nil {
		return nil, err
	}
	if out.Activity == nil {
		return nil, fmt.Errorf("%w: empty activity response", ErrUnavailable)
	}
	activity := out.Activity.ToDomain(id, c.location)
	return &activity, nil
}

// AddComment comments on a resolved claim.
func (c *Client) AddComment(ctx context.Context, id, comentario string) (*domain.Claim, error) {
	return c.claimCall(ctx, http.MethodPost, "/claims/"+url.PathEscape(id)+"/comment", dto.CreateCommentRequest{Comentario: comentario})
}

// ExportStats downloads the xlsx report and the server's suggested filename.
// month is ignored for annual reports; an empty categoria means all.
func (c *Client) ExportStats(ctx context.Context, mode string, year, month int, categoria string) ([]byte, string, error) {
	query := url.Values{}
	query.Set("modo", mode)
	query.Set("anio", strconv.Itoa(year))
	if month > 0 {
		query.Set("mes", strconv.Itoa(month))
	}
	if categoria != "" {
		query.Set("categoria", categoria)
	}
	resp, err := c.send(ctx, http.MethodGet, "/stats/export?"+query.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", decodeError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read export: %v", ErrUnavailable, err)
	}
	filename := "estadisticas-reclamos.xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return raw, filename, nil
}

func (c *Client) claimCall(ctx context.Context, method, path string, body any) (*domain.Claim, error) {
	var out dto.ClaimEnvelope
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	if out.Claim == nil {
		return nil, fmt.Errorf("%w: empty claim response", ErrUnavailable)
	}
	return out.Claim.ToDomain(c.location), nil
}

// do sends body as JSON and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrUnavailable, method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session, err := c.tokens.Load(); err == nil && session != nil && session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	return resp, nil
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	if apiErr.Code == "ACCOUNT_NOT_ACTIVE" {
		status, _ := apiErr.Details["accountStatus"].(string)
		return &AccountNotActiveError{Status: domain.AccountStatus(status), Message: apiErr.Message}
	}
	return apiErr
}
