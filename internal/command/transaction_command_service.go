package command

import (
	"context"
	"errors"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/events"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
	"go.uber.org/zap"
)

// PostingStore runs fn with the account row locked against concurrent
// postings. fn's writes commit only if it returns nil.
type PostingStore interface {
	WithLockedAccount(ctx context.Context, accountNumber string, fn func(account *models.Account, tx repository.PostingTx) error) error
}

type TransactionViewCache interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

type AccountViewInvalidator interface {
	InvalidateAccountView(ctx context.Context, accountNumber string)
}

// TransactionCommandService posts deposits and withdrawals. Every check that
// depends on the account happens while its row is locked, so the balance a
// withdrawal is checked against is the balance it is applied to.
type TransactionCommandService struct {
	store        PostingStore
	transactions TransactionViewCache
	accounts     AccountViewInvalidator
	publisher    EventPublisher
	logger       *zap.Logger
}

func NewTransactionCommandService(
	store PostingStore,
	transactions TransactionViewCache,
	accounts AccountViewInvalidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *TransactionCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionCommandService{
		store:        store,
		transactions: transactions,
		accounts:     accounts,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	var (
		transaction *models.Transaction
		newBalance  money.Amount
	)

	err := s.store.WithLockedAccount(ctx, cmd.AccountNumber, func(account *models.Account, tx repository.PostingTx) error {
		if account.UserID != cmd.UserID {
			return apperror.ForbiddenErr("You can only create transactions for your own accounts")
		}
		if cmd.Currency != account.Currency {
			return apperror.Invalid("Currency must be " + account.Currency)
		}
		amount, err := money.FromDecimal(cmd.Amount)
		if err != nil || amount <= 0 || amount > models.MaxTransactionAmount {
			return apperror.Invalid("Amount must be greater than 0.00 and at most " + models.MaxTransactionAmount.String() + " with at most two decimal places")
		}
		if !models.ValidTransactionType(cmd.Type) {
			return apperror.Invalid("Type must be deposit or withdrawal")
		}
		if cmd.Type == models.TransactionTypeWithdrawal && account.Balance < amount {
			return apperror.Insufficient("Insufficient funds to process transaction")
		}

		createdAt := now()
		transaction = &models.Transaction{
			ID:            utils.GenerateID(utils.TransactionIDPrefix),
			AccountNumber: account.AccountNumber,
			UserID:        cmd.UserID,
			Amount:        amount,
			Currency:      cmd.Currency,
			Type:          cmd.Type,
			Reference:     cmd.Reference,
			CreatedAt:     createdAt,
		}
		newBalance = account.Balance + transaction.SignedAmount()

		if err := tx.InsertTransaction(ctx, transaction); err != nil {
			return err
		}
		return tx.UpdateBalance(ctx, account.AccountNumber, newBalance, createdAt)
	})
	if err != nil {
		return nil, s.postingError(err)
	}

	s.afterPosting(ctx, transaction, newBalance)
	return transaction, nil
}

func (s *TransactionCommandService) postingError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrAccountNotFound):
		return apperror.NotFoundErr("Account not found")
	default:
		return apperror.Unexpectedf(err, "Failed to create transaction")
	}
}

// afterPosting refreshes read models and publishes events for a committed
// posting. None of this can undo the posting, so failures are only logged.
func (s *TransactionCommandService) afterPosting(ctx context.Context, transaction *models.Transaction, newBalance money.Amount) {
	s.accounts.InvalidateAccountView(ctx, transaction.AccountNumber)
	s.transactions.CacheTransactionView(ctx, transaction.View())

	log := s.logger.With(
		zap.String("transactionId", transaction.ID),
		zap.String("accountNumber", transaction.AccountNumber),
	)
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		AccountNumber: transaction.AccountNumber,
		UserID:        transaction.UserID,
		Amount:        transaction.Amount,
		Type:          transaction.Type,
		Currency:      transaction.Currency,
	}); err != nil {
		log.Warn("failed to publish event", zap.String("event", events.TransactionCreated), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: transaction.AccountNumber,
		TransactionID: transaction.ID,
		NewBalance:    newBalance,
		Change:        transaction.SignedAmount(),
	}); err != nil {
		log.Warn("failed to publish event", zap.String("event", events.BalanceUpdated), zap.Error(err))
	}
	log.Info("transaction posted",
		zap.String("type", transaction.Type),
		zap.Stringer("amount", transaction.Amount),
		zap.Stringer("newBalance", newBalance),
	)
}
