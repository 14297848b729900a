package pocketbase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atan0707/lepakmasjid/internal/pbtest"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

func TestHealth(t *testing.T) {
	s := pbtest.New(t)
	c := pocketbase.New(s.URL)
	require.NoError(t, c.Health(context.Background()))
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c := pocketbase.New("http://127.0.0.1:8090/")
	assert.Equal(t, "http://127.0.0.1:8090", c.BaseURL())
}

func TestAuthWithPassword(t *testing.T) {
	s := pbtest.New(t)
	seeded := s.SeedUser(t, "aiman@example.com", "secret12345", "Aiman", true)
	c := pocketbase.New(s.URL)

	res, err := c.AuthWithPassword(context.Background(), "users", "aiman@example.com", "secret12345")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, seeded["id"], res.Record["id"])

	store := c.AuthStore()
	assert.True(t, store.IsValid())
	assert.False(t, store.IsAdmin())
	assert.Equal(t, seeded["id"], store.RecordID())
}

func TestAuthWithPasswordWrongPassword(t *testing.T) {
	s := pbtest.New(t)
	s.SeedUser(t, "aiman@example.com", "secret12345", "Aiman", true)
	c := pocketbase.New(s.URL)

	_, err := c.AuthWithPassword(context.Background(), "users", "aiman@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, pocketbase.IsBadRequest(err))
	assert.False(t, c.AuthStore().IsValid())

	var apiErr *pocketbase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Failed to authenticate.", apiErr.Message)
}

func TestAdminAuthWithPassword(t *testing.T) {
	s := pbtest.New(t)
	seeded := s.SeedAdmin(t, "admin@example.com", "admin-secret")
	c := pocketbase.New(s.URL)

	res, err := c.AdminAuthWithPassword(context.Background(), "admin@example.com", "admin-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, seeded["id"], res.Record["id"])
	assert.True(t, c.AuthStore().IsAdmin())
	assert.True(t, c.AuthStore().IsValid())
}

func TestAuthRefresh(t *testing.T) {
	s := pbtest.New(t)
	seeded := s.SeedUser(t, "aiman@example.com", "secret12345", "Aiman", true)
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	_, err := c.AuthWithPassword(ctx, "users", "aiman@example.com", "secret12345")
	require.NoError(t, err)

	res, err := c.AuthRefresh(ctx, "users")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, seeded["id"], c.AuthStore().RecordID())
	assert.True(t, c.AuthStore().IsValid())
}

func TestTokenSentOnRequests(t *testing.T) {
	s := pbtest.New(t)
	sub := s.SeedRecord(t, "submissions", map[string]any{"status": "pending"})
	s.SeedUser(t, "aiman@example.com", "secret12345", "Aiman", true)
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	_, err := c.AuthWithPassword(ctx, "users", "aiman@example.com", "secret12345")
	require.NoError(t, err)
	token := c.AuthStore().Token()

	s.ResetRequests()
	_, err = c.GetOne(ctx, "submissions", sub["id"].(string), "")
	require.NoError(t, err)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, token, reqs[0].Auth)
}

func TestAuthStoreIsValid(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		c := pocketbase.New("http://127.0.0.1:8090")
		assert.False(t, c.AuthStore().IsValid())
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, time.Now().Add(-time.Hour))
		c := pocketbase.New("http://127.0.0.1:8090", pocketbase.WithToken(token))
		assert.False(t, c.AuthStore().IsValid())
	})

	t.Run("live token", func(t *testing.T) {
		token := signTestToken(t, time.Now().Add(time.Hour))
		c := pocketbase.New("http://127.0.0.1:8090", pocketbase.WithToken(token))
		assert.True(t, c.AuthStore().IsValid())
	})

	t.Run("garbage token", func(t *testing.T) {
		c := pocketbase.New("http://127.0.0.1:8090", pocketbase.WithToken("not-a-jwt"))
		assert.False(t, c.AuthStore().IsValid())
	})

	t.Run("clear drops the session", func(t *testing.T) {
		token := signTestToken(t, time.Now().Add(time.Hour))
		c := pocketbase.New("http://127.0.0.1:8090", pocketbase.WithToken(token))
		c.AuthStore().Clear()
		assert.False(t, c.AuthStore().IsValid())
		assert.Empty(t, c.AuthStore().Token())
	})
}

func TestWithHTTPClient(t *testing.T) {
	s := pbtest.New(t)
	var sawRequest bool
	hc := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		sawRequest = true
		return http.DefaultTransport.RoundTrip(req)
	})}
	c := pocketbase.New(s.URL, pocketbase.WithHTTPClient(hc))

	require.NoError(t, c.Health(context.Background()))
	assert.True(t, sawRequest, "requests should go through the injected client")
}

func TestTransportFailure(t *testing.T) {
	// a server that is already gone guarantees a refused connection
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	c := pocketbase.New(dead.URL)

	err := c.Health(context.Background())
	require.Error(t, err)

	var apiErr *pocketbase.APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not service errors")
	assert.Contains(t, err.Error(), "/api/health", "the failed request path is part of the error")

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr, "the underlying transport error stays unwrappable")
}

func TestErrorMapping(t *testing.T) {
	s := pbtest.New(t)
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	t.Run("missing record is not found", func(t *testing.T) {
		_, err := c.GetOne(ctx, "mosques", "aaaaaaaaaaaaaaa", "")
		require.Error(t, err)
		assert.True(t, pocketbase.IsNotFound(err))
		assert.EqualError(t, err, "pocketbase: 404 The requested resource wasn't found.")
	})

	t.Run("collection api without admin token is unauthorized", func(t *testing.T) {
		_, err := c.GetCollection(ctx, "submissions")
		require.Error(t, err)
		assert.True(t, pocketbase.IsUnauthorized(err))
	})
}

func signTestToken(t *testing.T, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
