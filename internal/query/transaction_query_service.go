package query

import (
	"context"
	"errors"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
)

type TransactionReader interface {
	GetByID(ctx context.Context, id, accountNumber string) (*models.TransactionView, error)
	ListByAccountNumber(ctx context.Context, accountNumber string) ([]models.TransactionView, error)
}

// TransactionQueryService serves transaction reads. The account is resolved
// and its ownership checked before any transaction is looked up.
type TransactionQueryService struct {
	readRepo TransactionReader
	accounts AccountReader
}

func NewTransactionQueryService(readRepo TransactionReader, accounts AccountReader) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, accounts: accounts}
}

// GetTransaction returns a transaction on the given account. A transaction
// that belongs to a different account is reported exactly like a missing one.
func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if _, err := ownedAccount(ctx, s.accounts, q.AccountNumber, q.UserID, "You can only view transactions for your own accounts"); err != nil {
		return nil, err
	}
	if !utils.ValidateTransactionID(q.TransactionID) {
		return nil, apperror.NotFoundErr("Transaction not found")
	}
	view, err := s.readRepo.GetByID(ctx, q.TransactionID, q.AccountNumber)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, apperror.NotFoundErr("Transaction not found")
	}
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to get transaction")
	}
	return view, nil
}

// ListTransactions returns all transactions for an account, newest first.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if _, err := ownedAccount(ctx, s.accounts, q.AccountNumber, q.UserID, "You can only view transactions for your own accounts"); err != nil {
		return nil, err
	}
	views, err := s.readRepo.ListByAccountNumber(ctx, q.AccountNumber)
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to list transactions")
	}
	return views, nil
}
