package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/internal/repository"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

// ErrCurrentPasswordIncorrect is surfaced verbatim to the user when the
// verification sign-in fails.
var ErrCurrentPasswordIncorrect = errors.New("Current password is incorrect")

type AccountService struct {
	users  *repository.UserRepo
	pb     *pocketbase.Client
	logger *zap.Logger
}

func NewAccountService(users *repository.UserRepo, pb *pocketbase.Client, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{users: users, pb: pb, logger: logger}
}

// ChangePassword verifies the current password by signing in with it before
// any update is issued. When verification fails the stored password is left
// untouched and ErrCurrentPasswordIncorrect is returned.
//
// The server invalidates existing tokens once the password changes, so the
// session is signed back in with the new password afterwards.
func (s *AccountService) ChangePassword(ctx context.Context, userID, email, oldPassword, newPassword string) error {
	if !models.IsValidRecordID(userID) {
		return fmt.Errorf("%w: %q", models.ErrInvalidRecordID, userID)
	}

	if _, err := s.pb.AuthWithPassword(ctx, repository.UsersCollection, email, oldPassword); err != nil {
		if pocketbase.IsBadRequest(err) || pocketbase.IsUnauthorized(err) {
			return ErrCurrentPasswordIncorrect
		}
		return fmt.Errorf("verify current password: %w", err)
	}

	_, err := s.users.Update(ctx, userID, map[string]any{
		"oldPassword":     oldPassword,
		"password":        newPassword,
		"passwordConfirm": newPassword,
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if _, err := s.pb.AuthWithPassword(ctx, repository.UsersCollection, email, newPassword); err != nil {
		s.logger.Warn("sign-in after password change failed", zap.String("user", userID), zap.Error(err))
	}
	return nil
}

// Ban suspends a user by clearing the verified flag. The schema has no
// dedicated suspension field, so moderation rides on email verification:
// a banned user shows up as unverified until unbanned.
func (s *AccountService) Ban(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Update(ctx, userID, map[string]any{"verified": false})
}

// Unban restores the verified flag cleared by Ban.
func (s *AccountService) Unban(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Update(ctx, userID, map[string]any{"verified": true})
}
