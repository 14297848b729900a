package pocketbase

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthStore keeps the current session token and the authenticated model
// (a user record or an admin), like the SDK auth store the frontend uses.
// Safe for concurrent use.
type AuthStore struct {
	mu      sync.RWMutex
	token   string
	record  map[string]any
	isAdmin bool
}

// Token returns the current session token, or "" when not authenticated.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Record returns the authenticated user record or admin model, or nil.
func (s *AuthStore) Record() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// RecordID returns the id of the authenticated record, or "".
func (s *AuthStore) RecordID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return ""
	}
	id, _ := s.record["id"].(string)
	return id
}

// IsAdmin reports whether the stored session belongs to an admin.
func (s *AuthStore) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

// IsValid reports whether a token is present and not expired. The exp claim
// is read without verifying the signature; the client never holds the
// signing key.
func (s *AuthStore) IsValid() bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.After(time.Now())
}

// Save replaces the stored session.
func (s *AuthStore) Save(token string, record map[string]any, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.record = record
	s.isAdmin = isAdmin
}

// Clear drops the stored session.
func (s *AuthStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.record = nil
	s.isAdmin = false
}

// AuthResult is the response of a successful password authentication.
type AuthResult struct {
	Token  string
	Record map[string]any
}

// AuthWithPassword authenticates against an auth collection (e.g. "users")
// with an identity (email/username) and password. On success the client's
// AuthStore is updated and the token is sent on subsequent requests.
func (c *Client) AuthWithPassword(ctx context.Context, collection, identity, password string) (*AuthResult, error) {
	body := map[string]any{"identity": identity, "password": password}
	var resp struct {
		Token  string         `json:"token"`
		Record map[string]any `json:"record"`
	}
	if err := c.send(ctx, "POST", "/api/collections/"+collection+"/auth-with-password", nil, body, &resp); err != nil {
		return nil, err
	}
	c.auth.Save(resp.Token, resp.Record, false)
	return &AuthResult{Token: resp.Token, Record: resp.Record}, nil
}

// AdminAuthWithPassword authenticates an admin session. Admin tokens bypass
// collection rules and unlock the collection management API.
func (c *Client) AdminAuthWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]any{"identity": email, "password": password}
	var resp struct {
		Token string         `json:"token"`
		Admin map[string]any `json:"admin"`
	}
	if err := c.send(ctx, "POST", "/api/admins/auth-with-password", nil, body, &resp); err != nil {
		return nil, err
	}
	c.auth.Save(resp.Token, resp.Admin, true)
	return &AuthResult{Token: resp.Token, Record: resp.Admin}, nil
}

// AuthRefresh exchanges the current token for a fresh one and re-fetches the
// authenticated model. Requires a stored session.
func (c *Client) AuthRefresh(ctx context.Context, collection string) (*AuthResult, error) {
	var resp struct {
		Token  string         `json:"token"`
		Record map[string]any `json:"record"`
	}
	if err := c.send(ctx, "POST", "/api/collections/"+collection+"/auth-refresh", nil, nil, &resp); err != nil {
		return nil, err
	}
	c.auth.Save(resp.Token, resp.Record, c.auth.IsAdmin())
	return &AuthResult{Token: resp.Token, Record: resp.Record}, nil
}
