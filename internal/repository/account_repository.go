package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/models"
)

const accountColumns = `account_number, user_id, sort_code, name, account_type, balance, currency, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.AccountNumber, &account.UserID, &account.SortCode, &account.Name,
		&account.AccountType, &account.Balance, &account.Currency,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// AccountWriteRepository handles all state-mutating operations for accounts
// other than balance changes, which only happen inside a posting (see
// TransactionWriteRepository.WithLockedAccount).
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

// Create inserts a new account. It returns ErrDuplicateKey when the account
// number is already taken.
func (r *AccountWriteRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.AccountNumber, account.UserID, account.SortCode, account.Name,
		account.AccountType, account.Balance, account.Currency,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByAccountNumber fetches the full write model including UserID for ownership checks.
func (r *AccountWriteRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1 AND deleted_at IS NULL
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
}

func (r *AccountWriteRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, account_type = $3, updated_at = $4
		WHERE account_number = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, account.AccountNumber, account.Name, account.AccountType, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectOneRow(result, ErrAccountNotFound)
}

func (r *AccountWriteRepository) Delete(ctx context.Context, accountNumber string, at time.Time) error {
	query := `UPDATE accounts SET deleted_at = $2 WHERE account_number = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, accountNumber, at)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOneRow(result, ErrAccountNotFound)
}

func (r *AccountWriteRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE user_id = $1 AND deleted_at IS NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
