package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/events"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountWriter struct {
	accounts map[string]*models.Account
	deleted  []string
}

func newFakeAccountWriter(accounts ...*models.Account) *fakeAccountWriter {
	w := &fakeAccountWriter{accounts: make(map[string]*models.Account)}
	for _, a := range accounts {
		w.accounts[a.AccountNumber] = a
	}
	return w
}

func (w *fakeAccountWriter) Create(_ context.Context, account *models.Account) error {
	if _, exists := w.accounts[account.AccountNumber]; exists {
		return repository.ErrDuplicateKey
	}
	stored := *account
	w.accounts[account.AccountNumber] = &stored
	return nil
}

func (w *fakeAccountWriter) GetByAccountNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	a, ok := w.accounts[accountNumber]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (w *fakeAccountWriter) Update(_ context.Context, account *models.Account) error {
	stored, ok := w.accounts[account.AccountNumber]
	if !ok {
		return repository.ErrAccountNotFound
	}
	stored.Name = account.Name
	stored.AccountType = account.AccountType
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

func (w *fakeAccountWriter) Delete(_ context.Context, accountNumber string, _ time.Time) error {
	if _, ok := w.accounts[accountNumber]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(w.accounts, accountNumber)
	w.deleted = append(w.deleted, accountNumber)
	return nil
}

func sequence(numbers ...string) func() string {
	i := 0
	return func() string {
		n := numbers[i%len(numbers)]
		i++
		return n
	}
}

func TestCreateAccount(t *testing.T) {
	writer := newFakeAccountWriter()
	cache := newFakeViewCache()
	pub := &fakePublisher{}
	svc := NewAccountCommandService(writer, cache, pub, nil)

	account, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		UserID: owner, Name: "Savings", AccountType: models.AccountTypePersonal,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^01\d{6}$`, account.AccountNumber)
	assert.Equal(t, models.SortCode, account.SortCode)
	assert.Equal(t, models.CurrencyGBP, account.Currency)
	assert.Equal(t, money.FromMinor(0), account.Balance)
	assert.Contains(t, cache.accounts, account.AccountNumber)
	assert.Equal(t, []string{events.AccountCreated}, pub.types())
	assert.Equal(t, events.AccountEventsStream, pub.events[0].Stream)
}

func TestCreateAccountRetriesOnCollision(t *testing.T) {
	writer := newFakeAccountWriter(testAccount("01000001", stranger, "0.00"), testAccount("01000002", stranger, "0.00"))
	svc := NewAccountCommandService(writer, newFakeViewCache(), &fakePublisher{}, nil)
	svc.newAccountNumber = sequence("01000001", "01000002", "01000003")

	account, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		UserID: owner, Name: "Main", AccountType: models.AccountTypePersonal,
	})
	require.NoError(t, err)
	assert.Equal(t, "01000003", account.AccountNumber)
}

func TestCreateAccountGivesUpAfterRepeatedCollisions(t *testing.T) {
	writer := newFakeAccountWriter(testAccount("01000001", stranger, "0.00"))
	svc := NewAccountCommandService(writer, newFakeViewCache(), &fakePublisher{}, nil)
	attempts := 0
	svc.newAccountNumber = func() string {
		attempts++
		return "01000001"
	}

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		UserID: owner, Name: "Main", AccountType: models.AccountTypePersonal,
	})
	assert.Equal(t, apperror.Unexpected, apperror.KindOf(err))
	assert.Equal(t, maxAccountNumberAttempts, attempts)
}

func TestCreateAccountRejectsUnknownType(t *testing.T) {
	svc := NewAccountCommandService(newFakeAccountWriter(), newFakeViewCache(), &fakePublisher{}, nil)

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{UserID: owner, Name: "Main", AccountType: "business"})
	assert.Equal(t, apperror.InvalidRequest, apperror.KindOf(err))
}

func TestUpdateAccount(t *testing.T) {
	tests := []struct {
		name string
		cmd  cqrs.UpdateAccountCommand
		want apperror.Kind
	}{
		{"missing", cqrs.UpdateAccountCommand{AccountNumber: "01999999", RequestingUserID: owner, Name: "x"}, apperror.NotFound},
		{"not owner", cqrs.UpdateAccountCommand{AccountNumber: acct, RequestingUserID: stranger, Name: "x"}, apperror.Forbidden},
		{"bad type", cqrs.UpdateAccountCommand{AccountNumber: acct, RequestingUserID: owner, AccountType: "business"}, apperror.InvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAccountCommandService(newFakeAccountWriter(testAccount(acct, owner, "5.00")), newFakeViewCache(), &fakePublisher{}, nil)
			_, err := svc.UpdateAccount(context.Background(), tt.cmd)
			assert.Equal(t, tt.want, apperror.KindOf(err))
		})
	}

	t.Run("renames and keeps balance", func(t *testing.T) {
		writer := newFakeAccountWriter(testAccount(acct, owner, "5.00"))
		cache := newFakeViewCache()
		svc := NewAccountCommandService(writer, cache, &fakePublisher{}, nil)

		view, err := svc.UpdateAccount(context.Background(), cqrs.UpdateAccountCommand{
			AccountNumber: acct, RequestingUserID: owner, Name: "Holiday",
		})
		require.NoError(t, err)
		assert.Equal(t, "Holiday", view.Name)
		assert.Equal(t, models.AccountTypePersonal, view.AccountType)
		assert.Equal(t, money.MustParse("5.00"), writer.accounts[acct].Balance)
		assert.Equal(t, []string{acct}, cache.invalidated)
	})
}

func TestDeleteAccount(t *testing.T) {
	writer := newFakeAccountWriter(testAccount(acct, owner, "0.00"))
	cache := newFakeViewCache()
	pub := &fakePublisher{}
	svc := NewAccountCommandService(writer, cache, pub, nil)
	ctx := context.Background()

	err := svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountNumber: acct, RequestingUserID: stranger})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	require.NoError(t, svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountNumber: acct, RequestingUserID: owner}))
	assert.Equal(t, []string{acct}, writer.deleted)
	assert.Equal(t, []string{acct}, cache.invalidated)
	assert.Equal(t, []string{events.AccountDeleted}, pub.types())
	assert.Equal(t, events.AccountDeletedEvent{AccountNumber: acct, UserID: owner}, pub.events[0].Data)

	err = svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountNumber: acct, RequestingUserID: owner})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err), fmt.Sprint(err))
}
