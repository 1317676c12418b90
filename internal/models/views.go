package models

import (
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/money"
)

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     Address   `json:"address"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

// AccountView is the read-optimised projection of an account.
// UserID is populated for ownership checks but never serialised to the API response.
type AccountView struct {
	AccountNumber string       `json:"accountNumber"`
	UserID        string       `json:"-"`
	SortCode      string       `json:"sortCode"`
	Name          string       `json:"name"`
	AccountType   string       `json:"accountType"`
	Balance       money.Amount `json:"balance"`
	Currency      string       `json:"currency"`
	CreatedAt     time.Time    `json:"createdTimestamp"`
	UpdatedAt     time.Time    `json:"updatedTimestamp"`
}

// TransactionView is the read-optimised projection of a transaction.
type TransactionView struct {
	ID            string       `json:"id"`
	AccountNumber string       `json:"-"`
	UserID        string       `json:"userId"`
	Amount        money.Amount `json:"amount"`
	Currency      string       `json:"currency"`
	Type          string       `json:"type"`
	Reference     string       `json:"reference,omitempty"`
	CreatedAt     time.Time    `json:"createdTimestamp"`
}

func (u *User) View() *UserView {
	return &UserView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (a *Account) View() *AccountView {
	return &AccountView{
		AccountNumber: a.AccountNumber,
		UserID:        a.UserID,
		SortCode:      a.SortCode,
		Name:          a.Name,
		AccountType:   a.AccountType,
		Balance:       a.Balance,
		Currency:      a.Currency,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (t *Transaction) View() *TransactionView {
	return &TransactionView{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		UserID:        t.UserID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Type:          t.Type,
		Reference:     t.Reference,
		CreatedAt:     t.CreatedAt,
	}
}
