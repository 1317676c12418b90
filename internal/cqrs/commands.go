package cqrs

import (
	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/shopspring/decimal"
)

type CreateUserCommand struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Address     models.Address
}

type UpdateUserCommand struct {
	UserID           string
	RequestingUserID string
	Name             string
	Email            string
	PhoneNumber      string
	Address          models.Address
}

type DeleteUserCommand struct {
	UserID           string
	RequestingUserID string
}

type CreateAccountCommand struct {
	UserID      string
	Name        string
	AccountType string
}

type UpdateAccountCommand struct {
	AccountNumber    string
	RequestingUserID string
	Name             string
	AccountType      string
}

type DeleteAccountCommand struct {
	AccountNumber    string
	RequestingUserID string
}

// CreateTransactionCommand asks for a single posting against AccountNumber on
// behalf of the authenticated UserID. Amount is in major units as sent by the
// caller; the posting engine decides whether it is a representable amount.
type CreateTransactionCommand struct {
	AccountNumber string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	Type          string
	Reference     string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
