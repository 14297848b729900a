package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/internal/pbtest"
	"github.com/Atan0707/lepakmasjid/internal/repository"
	"github.com/Atan0707/lepakmasjid/internal/service"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

func newAccounts(s *pbtest.Server) (*service.AccountService, *pocketbase.Client) {
	pb := pocketbase.New(s.URL)
	users := repository.NewUserRepo(pb)
	return service.NewAccountService(users, pb, zap.NewNop()), pb
}

func TestChangePassword(t *testing.T) {
	s := pbtest.New(t)
	user := s.SeedUser(t, "alice@example.com", "old-secret-123", "Alice", true)
	svc, pb := newAccounts(s)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user["id"].(string), "alice@example.com", "old-secret-123", "new-secret-456")
	require.NoError(t, err)

	// the session was signed back in with the new password
	assert.True(t, pb.AuthStore().IsValid())

	fresh := pocketbase.New(s.URL)
	_, err = fresh.AuthWithPassword(ctx, "users", "alice@example.com", "new-secret-456")
	assert.NoError(t, err, "new password should work")
	_, err = fresh.AuthWithPassword(ctx, "users", "alice@example.com", "old-secret-123")
	assert.True(t, pocketbase.IsBadRequest(err), "old password should be dead")
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	s := pbtest.New(t)
	user := s.SeedUser(t, "alice@example.com", "old-secret-123", "Alice", true)
	svc, _ := newAccounts(s)
	ctx := context.Background()
	s.ResetRequests()

	err := svc.ChangePassword(ctx, user["id"].(string), "alice@example.com", "wrong-guess", "new-secret-456")
	require.ErrorIs(t, err, service.ErrCurrentPasswordIncorrect)
	assert.EqualError(t, err, "Current password is incorrect")

	for _, req := range s.Requests() {
		assert.NotEqual(t, http.MethodPatch, req.Method, "no update may be issued when verification fails")
	}

	// the stored password is untouched
	fresh := pocketbase.New(s.URL)
	_, err = fresh.AuthWithPassword(ctx, "users", "alice@example.com", "old-secret-123")
	assert.NoError(t, err)
}

func TestChangePasswordRejectsMalformedID(t *testing.T) {
	s := pbtest.New(t)
	svc, _ := newAccounts(s)

	err := svc.ChangePassword(context.Background(), "not-an-id", "alice@example.com", "a", "b")
	assert.ErrorIs(t, err, models.ErrInvalidRecordID)
	assert.Zero(t, s.RequestCount())
}

func TestBanAndUnban(t *testing.T) {
	s := pbtest.New(t)
	user := s.SeedUser(t, "alice@example.com", "secret12345", "Alice", true)
	svc, _ := newAccounts(s)
	ctx := context.Background()
	id := user["id"].(string)

	banned, err := svc.Ban(ctx, id)
	require.NoError(t, err)
	assert.False(t, banned.Verified)
	assert.Equal(t, false, s.Record("users", id)["verified"])

	unbanned, err := svc.Unban(ctx, id)
	require.NoError(t, err)
	assert.True(t, unbanned.Verified)
	assert.Equal(t, true, s.Record("users", id)["verified"])
}
