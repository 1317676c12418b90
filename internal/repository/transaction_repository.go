package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
)

// PostingTx is the write surface available while an account row is locked.
// Nothing written through it is visible until the enclosing
// WithLockedAccount call commits.
type PostingTx interface {
	InsertTransaction(ctx context.Context, transaction *models.Transaction) error
	UpdateBalance(ctx context.Context, accountNumber string, balance money.Amount, updatedAt time.Time) error
}

// TransactionWriteRepository owns the ledger insert and the balance update,
// and runs both in one PostgreSQL transaction.
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// WithLockedAccount begins a transaction, loads the account with
// SELECT ... FOR UPDATE and calls fn with it. Concurrent callers on the same
// account block until the holder commits or rolls back; other accounts are
// unaffected. The transaction commits only if fn returns nil. It returns
// ErrAccountNotFound when the account does not exist or is deleted.
func (r *TransactionWriteRepository) WithLockedAccount(
	ctx context.Context,
	accountNumber string,
	fn func(account *models.Account, tx PostingTx) error,
) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	account, err := scanAccount(tx.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		return err
	}

	if err = fn(account, &postingTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posting: %w", err)
	}
	return nil
}

type postingTx struct {
	tx *sql.Tx
}

func (p *postingTx) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_number, user_id, amount, currency, type, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := p.tx.ExecContext(ctx, query,
		transaction.ID, transaction.AccountNumber, transaction.UserID,
		transaction.Amount, transaction.Currency, transaction.Type,
		nullString(transaction.Reference), transaction.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (p *postingTx) UpdateBalance(ctx context.Context, accountNumber string, balance money.Amount, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE account_number = $1 AND deleted_at IS NULL
	`
	result, err := p.tx.ExecContext(ctx, query, accountNumber, balance, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return expectOneRow(result, ErrAccountNotFound)
}
