package query

import (
	"context"
	"errors"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
)

type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.UserView, error)
}

// UserQueryService reads user views from the Redis cache (with a Postgres fallback).
type UserQueryService struct {
	readRepo UserReader
}

func NewUserQueryService(readRepo UserReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, apperror.ForbiddenErr("You can only access your own user details")
	}
	view, err := s.readRepo.GetByID(ctx, q.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NotFoundErr("User not found")
	}
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to get user")
	}
	return view, nil
}
