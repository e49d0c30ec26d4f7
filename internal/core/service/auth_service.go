package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/port"
)

type AuthService struct {
	users port.UserRepository
	auth  port.AuthProvider
	log   *zap.SugaredLogger
}

func NewAuthService(users port.UserRepository, auth port.AuthProvider, log *zap.SugaredLogger) *AuthService {
	return &AuthService{users: users, auth: auth, log: log}
}

// Register creates a new user with a hashed password. The first fields are
// trimmed; username comparison is exact.
func (s *AuthService) Register(ctx context.Context, username, fullName, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidArgument)
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Two registrations can race past the lookup; the unique
		// constraint settles it.
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: username or email is taken", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks credentials and issues a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("lookup username: %w", err)
	}
	if user == nil || !s.auth.VerifyPassword(password, user.PasswordHash) {
		s.log.Warnw("failed login", "username", username)
		return "", nil, fmt.Errorf("%w: incorrect username or password", ErrUnauthorized)
	}

	token, err := s.auth.IssueToken(port.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// ResolveToken validates a bearer token and loads the user it was issued
// for. A token for a since-deleted user is rejected.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	identity, err := s.auth.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	user, err := s.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	return user, nil
}
