package query

import (
	"context"
	"errors"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/auth"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
)

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// AuthQueryService handles login and token refresh. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	users  CredentialStore
	tokens TokenIssuer
}

func NewAuthQueryService(users CredentialStore, tokens TokenIssuer) *AuthQueryService {
	return &AuthQueryService{users: users, tokens: tokens}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.users.GetByEmail(ctx, cmd.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", apperror.New(apperror.Unauthorized, "Invalid credentials")
	}
	if err != nil {
		return "", apperror.Unexpectedf(err, "Failed to log in")
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return "", apperror.New(apperror.Unauthorized, "Invalid credentials")
	}
	return s.issue(user.ID, user.Email)
}

// RefreshToken exchanges a valid token for a fresh one. Tokens of deleted
// users are not refreshed.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := s.tokens.Verify(cmd.Token)
	if err != nil {
		return "", apperror.Wrap(apperror.Unauthorized, "Invalid token", err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", apperror.New(apperror.Unauthorized, "Invalid token")
	}
	if err != nil {
		return "", apperror.Unexpectedf(err, "Failed to refresh token")
	}
	return s.issue(user.ID, user.Email)
}

func (s *AuthQueryService) issue(userID, email string) (string, error) {
	token, err := s.tokens.Issue(userID, email)
	if err != nil {
		return "", apperror.Unexpectedf(err, "Failed to generate token")
	}
	return token, nil
}
