package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vovakirdan/voicespaces-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides account registration and login.
type Service struct {
	store     store.AccountStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(accounts store.AccountStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     accounts,
		jwtConfig: jwtConfig,
	}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*store.Account, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(password) < 6 || len(password) > maxPasswordBytes {
		return nil, ErrInvalidPassword
	}

	exists, err := s.store.AccountExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	acc := store.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if taken, checkErr := s.store.AccountExists(ctx, username); checkErr == nil && taken {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &acc, nil
}

// Login validates credentials and returns a token with the canonical username.
func (s *Service) Login(ctx context.Context, username, password string) (token, name string, err error) {
	acc, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("get account: %w", err)
	}

	if errPwd := ComparePassword(acc.PasswordHash, password); errPwd != nil {
		return "", "", ErrInvalidCredentials
	}

	token, err = GenerateToken(s.jwtConfig, acc.ID, acc.Username)
	if err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	return token, acc.Username, nil
}

// ValidateToken validates a token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
