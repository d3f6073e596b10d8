package services

import (
	"context"
	"errors"
	"strings"

	"github.com/eshop-api/products/internal/store"
	"github.com/eshop-api/products/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultUserRole = "user"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// TokenIssuer produces signed bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string, extra map[string]any) (string, error)
}

// AuthService orchestrates registration and login.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
}

func NewAuthService(users UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

// Register creates an account for the given credentials and returns a
// freshly issued token for the new subject. The password is stored only as
// a bcrypt hash; the store's unique index on email is the conflict
// authority, surfaced as ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		Role:         defaultUserRole,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", ErrEmailTaken
		}
		return "", err
	}

	return s.tokens.Issue(user.Email, map[string]any{"role": user.Role})
}

// Login verifies the credentials and returns a token. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials; the hash comparison is
// bcrypt's own constant-time check.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email, map[string]any{"role": user.Role})
}

// CurrentUser loads the account behind a verified token subject.
func (s *AuthService) CurrentUser(ctx context.Context, email string) (types.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func validateCredentials(email, password string) error {
	var fields []FieldError
	if email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "must not be blank"})
	}
	if password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "must not be blank"})
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	return nil
}
