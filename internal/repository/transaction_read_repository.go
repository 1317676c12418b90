package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/eagle-bank-api/internal/models"
	sharedredis "github.com/eaglebank/eagle-bank-api/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionReadRepository handles all read operations for transactions.
// Transactions are immutable, so their views are cached without expiry.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.TransactionView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.TransactionView](redisClient, 0, logger),
	}
}

func transactionViewKey(accountNumber, id string) string {
	return fmt.Sprintf("%s%s:%s", transactionViewKeyPrefix, accountNumber, id)
}

func scanTransactionView(row rowScanner) (*models.TransactionView, error) {
	var view models.TransactionView
	var reference sql.NullString
	if err := row.Scan(
		&view.ID, &view.AccountNumber, &view.UserID,
		&view.Amount, &view.Currency, &view.Type,
		&reference, &view.CreatedAt,
	); err != nil {
		return nil, err
	}
	if reference.Valid {
		view.Reference = reference.String
	}
	return &view, nil
}

// GetByID returns the transaction with the given id on the given account.
// A transaction that exists on a different account is reported as
// ErrTransactionNotFound, the same as a missing id.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id, accountNumber string) (*models.TransactionView, error) {
	if view, ok := r.cache.Get(ctx, transactionViewKey(accountNumber, id)); ok {
		view.AccountNumber = accountNumber
		return view, nil
	}

	query := `
		SELECT id, account_number, user_id, amount, currency, type, reference, created_at
		FROM transactions
		WHERE id = $1 AND account_number = $2
	`
	view, err := scanTransactionView(r.db.QueryRowContext(ctx, query, id, accountNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	r.CacheTransactionView(ctx, view)
	return view, nil
}

// ListByAccountNumber returns all TransactionViews for an account, newest first.
func (r *TransactionReadRepository) ListByAccountNumber(ctx context.Context, accountNumber string) ([]models.TransactionView, error) {
	query := `
		SELECT id, account_number, user_id, amount, currency, type, reference, created_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views := make([]models.TransactionView, 0)
	for rows.Next() {
		view, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return views, nil
}

// CacheTransactionView stores the read model for a transaction in Redis.
// Called by the command service immediately after a successful posting.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKey(view.AccountNumber, view.ID), view)
}
