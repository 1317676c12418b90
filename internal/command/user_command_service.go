package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/events"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
	"go.uber.org/zap"
)

const duplicateEmailMessage = "A user with this email already exists"

type UserWriter interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string, at time.Time) error
}

// UserReadModel is the Redis side of users: cached views and the per-user
// open account count projected from account events.
type UserReadModel interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, userID string)
	IncrAccountCount(ctx context.Context, userID string) error
	DecrAccountCount(ctx context.Context, userID string) error
	AccountCount(ctx context.Context, userID string) (int, bool)
	SetAccountCount(ctx context.Context, userID string, n int) error
}

// AccountCounter counts a user's open accounts in the write store.
type AccountCounter interface {
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo UserWriter
	readRepo  UserReadModel
	accounts  AccountCounter
	publisher EventPublisher
	logger    *zap.Logger
}

func NewUserCommandService(
	writeRepo UserWriter,
	readRepo UserReadModel,
	accounts AccountCounter,
	publisher EventPublisher,
	logger *zap.Logger,
) *UserCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		accounts:  accounts,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, apperror.Unexpectedf(err, "Failed to create user")
	}
	createdAt := now()
	user := &models.User{
		ID:           utils.GenerateID(utils.UserIDPrefix),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cmd.PhoneNumber,
		Address:      cmd.Address,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.Invalid(duplicateEmailMessage)
		}
		return nil, apperror.Unexpectedf(err, "Failed to create user")
	}

	s.readRepo.CacheUserView(ctx, user.View())
	s.publish(ctx, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if cmd.UserID != cmd.RequestingUserID {
		return nil, apperror.ForbiddenErr("You can only update your own user details")
	}
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, userError(err, "Failed to update user")
	}

	user.Name = cmd.Name
	user.Email = cmd.Email
	user.PhoneNumber = cmd.PhoneNumber
	user.Address = cmd.Address
	user.UpdatedAt = now()
	if err := s.writeRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.Invalid(duplicateEmailMessage)
		}
		return nil, userError(err, "Failed to update user")
	}

	view := user.View()
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return view, nil
}

// DeleteUser rejects the operation if the user still has open accounts.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if cmd.UserID != cmd.RequestingUserID {
		return apperror.ForbiddenErr("You can only delete your own user")
	}
	if _, err := s.writeRepo.GetByID(ctx, cmd.UserID); err != nil {
		return userError(err, "Failed to delete user")
	}

	hasAccounts, err := s.hasAccounts(ctx, cmd.UserID)
	if err != nil {
		return apperror.Unexpectedf(err, "Failed to delete user")
	}
	if hasAccounts {
		return apperror.New(apperror.Conflict, "Cannot delete user with active bank accounts")
	}

	if err := s.writeRepo.Delete(ctx, cmd.UserID, now()); err != nil {
		return userError(err, "Failed to delete user")
	}

	s.readRepo.InvalidateUserView(ctx, cmd.UserID)
	s.publish(ctx, events.UserDeleted, events.UserDeletedEvent{UserID: cmd.UserID})
	return nil
}

// hasAccounts answers from PostgreSQL. The projected count can lag or drift
// (account events are published best effort), so it never decides a delete;
// a drifted projection is corrected here.
func (s *UserCommandService) hasAccounts(ctx context.Context, userID string) (bool, error) {
	n, err := s.accounts.CountByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if projected, ok := s.readRepo.AccountCount(ctx, userID); ok && projected != n {
		s.logger.Warn("account count projection drifted",
			zap.String("userId", userID),
			zap.Int("projected", projected),
			zap.Int("actual", n),
		)
		if err := s.readRepo.SetAccountCount(ctx, userID, n); err != nil {
			s.logger.Warn("failed to correct account count", zap.String("userId", userID), zap.Error(err))
		}
	}
	return n > 0, nil
}

// HandleAccountEvent is the Redis stream subscriber handler.
// It keeps the per-user account count current from account.created and
// account.deleted; other account events are ignored.
func (s *UserCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		if err := s.readRepo.IncrAccountCount(ctx, data.UserID); err != nil {
			return fmt.Errorf("failed to increment account count: %w", err)
		}
		s.logger.Debug("account count incremented", zap.String("userId", data.UserID), zap.String("accountNumber", data.AccountNumber))
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		if err := s.readRepo.DecrAccountCount(ctx, data.UserID); err != nil {
			return fmt.Errorf("failed to decrement account count: %w", err)
		}
		s.logger.Debug("account count decremented", zap.String("userId", data.UserID), zap.String("accountNumber", data.AccountNumber))
	}
	return nil
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}

func userError(err error, fallback string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.NotFoundErr("User not found")
	}
	return apperror.Unexpectedf(err, fallback)
}
