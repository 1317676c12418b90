package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/auth"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
	"github.com/eaglebank/eagle-bank-api/internal/repository"
	"github.com/eaglebank/eagle-bank-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    = "usr-owner00001"
	stranger = "usr-other00001"
)

type fakeAccounts map[string]models.AccountView

func (f fakeAccounts) GetByAccountNumber(_ context.Context, accountNumber string) (*models.AccountView, error) {
	v, ok := f[accountNumber]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &v, nil
}

func (f fakeAccounts) ListByUserID(_ context.Context, userID string) ([]models.AccountView, error) {
	out := make([]models.AccountView, 0)
	for _, v := range f {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeTransactions []models.TransactionView

func (f fakeTransactions) GetByID(_ context.Context, id, accountNumber string) (*models.TransactionView, error) {
	for _, v := range f {
		if v.ID == id && v.AccountNumber == accountNumber {
			return &v, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (f fakeTransactions) ListByAccountNumber(_ context.Context, accountNumber string) ([]models.TransactionView, error) {
	out := make([]models.TransactionView, 0)
	for _, v := range f {
		if v.AccountNumber == accountNumber {
			out = append(out, v)
		}
	}
	return out, nil
}

func testAccounts() fakeAccounts {
	return fakeAccounts{
		"01000001": {AccountNumber: "01000001", UserID: owner, Balance: money.MustParse("150.00")},
		"01000002": {AccountNumber: "01000002", UserID: stranger},
	}
}

func TestGetAccount(t *testing.T) {
	svc := NewAccountQueryService(testAccounts())
	ctx := context.Background()

	view, err := svc.GetAccount(ctx, cqrs.GetAccountQuery{AccountNumber: "01000001", RequestingUserID: owner})
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("150.00"), view.Balance)

	_, err = svc.GetAccount(ctx, cqrs.GetAccountQuery{AccountNumber: "01000002", RequestingUserID: owner})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	_, err = svc.GetAccount(ctx, cqrs.GetAccountQuery{AccountNumber: "01999999", RequestingUserID: owner})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestListAccountsOnlyReturnsOwn(t *testing.T) {
	svc := NewAccountQueryService(testAccounts())

	views, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{UserID: owner})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "01000001", views[0].AccountNumber)
}

func TestGetTransaction(t *testing.T) {
	txns := fakeTransactions{
		{ID: "tan-aaaaaaaaaa", AccountNumber: "01000001", UserID: owner},
		{ID: "tan-bbbbbbbbbb", AccountNumber: "01000003", UserID: owner},
	}
	accounts := testAccounts()
	accounts["01000003"] = models.AccountView{AccountNumber: "01000003", UserID: owner}
	svc := NewTransactionQueryService(txns, accounts)

	tests := []struct {
		name    string
		query   cqrs.GetTransactionQuery
		want    apperror.Kind
		wantErr bool
	}{
		{"found", cqrs.GetTransactionQuery{TransactionID: "tan-aaaaaaaaaa", AccountNumber: "01000001", UserID: owner}, 0, false},
		{"unknown account", cqrs.GetTransactionQuery{TransactionID: "tan-aaaaaaaaaa", AccountNumber: "01999999", UserID: owner}, apperror.NotFound, true},
		{"not owner", cqrs.GetTransactionQuery{TransactionID: "tan-aaaaaaaaaa", AccountNumber: "01000002", UserID: owner}, apperror.Forbidden, true},
		{"unknown id", cqrs.GetTransactionQuery{TransactionID: "tan-zzzzzzzzzz", AccountNumber: "01000001", UserID: owner}, apperror.NotFound, true},
		{"malformed id", cqrs.GetTransactionQuery{TransactionID: "../etc", AccountNumber: "01000001", UserID: owner}, apperror.NotFound, true},
		{"malformed id on foreign account", cqrs.GetTransactionQuery{TransactionID: "../etc", AccountNumber: "01000002", UserID: owner}, apperror.Forbidden, true},
		{"other account", cqrs.GetTransactionQuery{TransactionID: "tan-bbbbbbbbbb", AccountNumber: "01000001", UserID: owner}, apperror.NotFound, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetTransaction(context.Background(), tt.query)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.query.TransactionID, view.ID)
				return
			}
			assert.Equal(t, tt.want, apperror.KindOf(err))
		})
	}
}

func TestTransactionOnOtherAccountLooksMissing(t *testing.T) {
	txns := fakeTransactions{{ID: "tan-bbbbbbbbbb", AccountNumber: "01000003", UserID: owner}}
	accounts := testAccounts()
	svc := NewTransactionQueryService(txns, accounts)

	_, missing := svc.GetTransaction(context.Background(), cqrs.GetTransactionQuery{TransactionID: "tan-zzzzzzzzzz", AccountNumber: "01000001", UserID: owner})
	_, elsewhere := svc.GetTransaction(context.Background(), cqrs.GetTransactionQuery{TransactionID: "tan-bbbbbbbbbb", AccountNumber: "01000001", UserID: owner})
	assert.Equal(t, missing.Error(), elsewhere.Error())
}

func TestListTransactions(t *testing.T) {
	svc := NewTransactionQueryService(fakeTransactions{}, testAccounts())

	views, err := svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "01000001", UserID: owner})
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "01000002", UserID: owner})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))
}

type fakeUserViews map[string]models.UserView

func (f fakeUserViews) GetByID(_ context.Context, id string) (*models.UserView, error) {
	v, ok := f[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &v, nil
}

func TestGetUser(t *testing.T) {
	svc := NewUserQueryService(fakeUserViews{owner: {ID: owner, Name: "Jane"}})
	ctx := context.Background()

	view, err := svc.GetUser(ctx, cqrs.GetUserQuery{UserID: owner, RequestingUserID: owner})
	require.NoError(t, err)
	assert.Equal(t, "Jane", view.Name)

	_, err = svc.GetUser(ctx, cqrs.GetUserQuery{UserID: owner, RequestingUserID: stranger})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	_, err = svc.GetUser(ctx, cqrs.GetUserQuery{UserID: stranger, RequestingUserID: stranger})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

type fakeCredentials struct {
	users map[string]*models.User
	err   error
}

func (f *fakeCredentials) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeCredentials) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func newTestAuthService(t *testing.T) (*AuthQueryService, *auth.TokenService, *fakeCredentials) {
	t.Helper()
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)
	creds := &fakeCredentials{users: map[string]*models.User{
		owner: {ID: owner, Email: "jane@example.com", PasswordHash: hash},
	}}
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	return NewAuthQueryService(creds, tokens), tokens, creds
}

func TestLogin(t *testing.T) {
	svc, tokens, creds := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, cqrs.LoginCommand{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, owner, claims.UserID)

	_, err = svc.Login(ctx, cqrs.LoginCommand{Email: "jane@example.com", Password: "wrong"})
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	_, err = svc.Login(ctx, cqrs.LoginCommand{Email: "nobody@example.com", Password: "correct-horse"})
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	creds.err = errors.New("db down")
	_, err = svc.Login(ctx, cqrs.LoginCommand{Email: "jane@example.com", Password: "correct-horse"})
	assert.Equal(t, apperror.Unexpected, apperror.KindOf(err))
}

func TestRefreshToken(t *testing.T) {
	svc, tokens, creds := newTestAuthService(t)
	ctx := context.Background()

	original, err := tokens.Issue(owner, "jane@example.com")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: original})
	require.NoError(t, err)
	_, err = tokens.Verify(refreshed)
	assert.NoError(t, err)

	_, err = svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: "not-a-token"})
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	delete(creds.users, owner)
	_, err = svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: original})
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))
}
