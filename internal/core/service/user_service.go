package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type UserService struct {
	users port.UserRepository
	auth  port.AuthProvider
	log   *zap.SugaredLogger
}

func NewUserService(users port.UserRepository, auth port.AuthProvider, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, auth: auth, log: log}
}

// UserUpdateInput is a partial profile update. Password, when set, is the
// new plaintext and gets hashed before storage.
type UserUpdateInput struct {
	Username *string
	FullName *string
	Email    *string
	Password *string
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update applies a partial profile update. Only the user themselves or an
// admin may update a profile.
func (s *UserService) Update(ctx context.Context, caller *domain.User, id int64, in UserUpdateInput) (*domain.User, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	if caller.ID != id && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot update user %d", ErrForbidden, id)
	}

	update := domain.UserUpdate{
		FullName: in.FullName,
		Email:    in.Email,
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidArgument)
		}
		update.Username = &username
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidArgument)
		}
		hash, err := s.auth.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	user, err := s.users.UpdateUser(ctx, id, update)
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: username or email is taken", ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return user, nil
}

// Delete removes a user. Only the user themselves or an admin may delete.
// Deletion is rejected while the user still owns non-removed items or is
// party to any transaction, so purchase and rating history stays intact.
func (s *UserService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	if caller == nil {
		return fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	if caller.ID != id && !caller.IsAdmin() {
		return fmt.Errorf("%w: cannot delete user %d", ErrForbidden, id)
	}

	refs, err := s.users.UserReferenceCount(ctx, id)
	if err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	if refs > 0 {
		s.log.Warnw("delete rejected, user still referenced", "user_id", id, "references", refs)
		return fmt.Errorf("%w: user %d is still referenced by items or transactions", ErrConflict, id)
	}

	deleted, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		// A reference created between the count and the delete, like a
		// relisted item, still blocks.
		if errors.Is(err, port.ErrUserReferenced) {
			return fmt.Errorf("%w: user %d is still referenced by items or transactions", ErrConflict, id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	s.log.Infow("user deleted", "user_id", id, "caller_id", caller.ID)
	return nil
}
