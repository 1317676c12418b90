package query

import (
	"context"
	"errors"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
)

type AccountReader interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error)
	ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error)
}

type AccountQueryService struct {
	readRepo AccountReader
}

func NewAccountQueryService(readRepo AccountReader) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// GetAccount fetches a single account view and enforces ownership.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return ownedAccount(ctx, s.readRepo, q.AccountNumber, q.RequestingUserID, "You can only view your own accounts")
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	views, err := s.readRepo.ListByUserID(ctx, q.UserID)
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to list accounts")
	}
	return views, nil
}

// ownedAccount resolves an account and checks that userID owns it. The
// AccountView carries UserID (json:"-") for this purpose.
func ownedAccount(ctx context.Context, accounts AccountReader, accountNumber, userID, forbidden string) (*models.AccountView, error) {
	view, err := accounts.GetByAccountNumber(ctx, accountNumber)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.NotFoundErr("Account not found")
	}
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to get account")
	}
	if view.UserID != userID {
		return nil, apperror.ForbiddenErr(forbidden)
	}
	return view, nil
}
