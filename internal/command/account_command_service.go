package command

import (
	"context"
	"errors"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/events"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
	"go.uber.org/zap"
)

// maxAccountNumberAttempts bounds retries when a generated account number
// collides with an existing one.
const maxAccountNumberAttempts = 5

type AccountWriter interface {
	Create(ctx context.Context, account *models.Account) error
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, accountNumber string, at time.Time) error
}

type AccountViewCache interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, accountNumber string)
}

// AccountCommandService writes account state and keeps the read model in sync.
// Balances are never written here; see TransactionCommandService.
type AccountCommandService struct {
	writeRepo        AccountWriter
	readRepo         AccountViewCache
	publisher        EventPublisher
	logger           *zap.Logger
	newAccountNumber func() string
}

func NewAccountCommandService(
	writeRepo AccountWriter,
	readRepo AccountViewCache,
	publisher EventPublisher,
	logger *zap.Logger,
) *AccountCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountCommandService{
		writeRepo:        writeRepo,
		readRepo:         readRepo,
		publisher:        publisher,
		logger:           logger,
		newAccountNumber: utils.GenerateAccountNumber,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if !models.ValidAccountType(cmd.AccountType) {
		return nil, apperror.Invalid("Unsupported account type")
	}

	createdAt := now()
	account := &models.Account{
		UserID:      cmd.UserID,
		SortCode:    models.SortCode,
		Name:        cmd.Name,
		AccountType: cmd.AccountType,
		Currency:    models.CurrencyGBP,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	var err error
	for attempt := 1; attempt <= maxAccountNumberAttempts; attempt++ {
		account.AccountNumber = s.newAccountNumber()
		err = s.writeRepo.Create(ctx, account)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
		s.logger.Debug("account number collision", zap.String("accountNumber", account.AccountNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to create account")
	}

	s.readRepo.CacheAccountView(ctx, account.View())
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Name:          account.Name,
		AccountType:   account.AccountType,
	})
	return account, nil
}

func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	account, err := s.ownedAccount(ctx, cmd.AccountNumber, cmd.RequestingUserID, "You can only update your own accounts")
	if err != nil {
		return nil, err
	}
	if cmd.AccountType != "" && !models.ValidAccountType(cmd.AccountType) {
		return nil, apperror.Invalid("Unsupported account type")
	}

	if cmd.Name != "" {
		account.Name = cmd.Name
	}
	if cmd.AccountType != "" {
		account.AccountType = cmd.AccountType
	}
	account.UpdatedAt = now()
	if err := s.writeRepo.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperror.NotFoundErr("Account not found")
		}
		return nil, apperror.Unexpectedf(err, "Failed to update account")
	}

	// The balance read above may already be stale, so drop the cached view
	// instead of overwriting it.
	s.readRepo.InvalidateAccountView(ctx, account.AccountNumber)
	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Name:          account.Name,
	})
	return account.View(), nil
}

func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	account, err := s.ownedAccount(ctx, cmd.AccountNumber, cmd.RequestingUserID, "You can only delete your own accounts")
	if err != nil {
		return err
	}
	if err := s.writeRepo.Delete(ctx, account.AccountNumber, now()); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperror.NotFoundErr("Account not found")
		}
		return apperror.Unexpectedf(err, "Failed to delete account")
	}

	s.readRepo.InvalidateAccountView(ctx, account.AccountNumber)
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return nil
}

func (s *AccountCommandService) ownedAccount(ctx context.Context, accountNumber, userID, forbidden string) (*models.Account, error) {
	account, err := s.writeRepo.GetByAccountNumber(ctx, accountNumber)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.NotFoundErr("Account not found")
	}
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to get account")
	}
	if account.UserID != userID {
		return nil, apperror.ForbiddenErr(forbidden)
	}
	return account, nil
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}
