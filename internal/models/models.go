package models

import (
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/money"
)

const (
	SortCode            = "10-10-10"
	CurrencyGBP         = "GBP"
	AccountTypePersonal = "personal"

	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

// MaxTransactionAmount is the largest amount accepted by a single posting.
var MaxTransactionAmount = money.MustParse("10000.00")

// ValidAccountType reports whether t is an account type that can be opened.
func ValidAccountType(t string) bool {
	return t == AccountTypePersonal
}

// ValidTransactionType reports whether t is a posting type.
func ValidTransactionType(t string) bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

type Address struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town" validate:"required"`
	County   string `json:"county" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phoneNumber"`
	Address      Address   `json:"address"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

type Account struct {
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

type Transaction struct {
	ID            string       `json:"id"`
	AccountNumber string       `json:"-"`
	UserID        string       `json:"userId"`
	Amount        money.Amount `json:"amount"`
	Currency      string       `json:"currency"`
	Type          string       `json:"type"`
	Reference     string       `json:"reference,omitempty"`
	CreatedAt     time.Time    `json:"createdTimestamp"`
}

// SignedAmount is the effect of the transaction on its account's balance.
func (t *Transaction) SignedAmount() money.Amount {
	if t.Type == TransactionTypeWithdrawal {
		return -t.Amount
	}
	return t.Amount
}
