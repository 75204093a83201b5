package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/threadforge/threadforge/internal/auth"
	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrNameRequired       = errors.New("name is required")
)

type AuthService struct {
	userStore *db.UserStore
	tokens    *auth.TokenIssuer
	logger    *slog.Logger
}

func NewAuthService(userStore *db.UserStore, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		userStore: userStore,
		tokens:    tokens,
		logger:    logger,
	}
}

// Session is an issued token plus the user it belongs to.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a customer account and signs them in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	logger := logging.FromContext(ctx, s.logger)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return s.issueSession(user)
}

// Login verifies credentials and issues a session token. Failures are
// indistinguishable between unknown email and wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// Verify resolves a bearer token to the current user record.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
