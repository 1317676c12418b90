package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/models"
	"github.com/eaglebank/eagle-bank-api/internal/money"
	sharedredis "github.com/eaglebank/eagle-bank-api/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const accountViewKeyPrefix = "account:view:"

// accountCacheEntry is the internal Redis representation of an account.
// Unlike models.AccountView, it includes UserID so that ownership checks can
// be served from the cache.
type accountCacheEntry struct {
	AccountNumber string       `json:"accountNumber"`
	UserID        string       `json:"userId"`
	SortCode      string       `json:"sortCode"`
	Name          string       `json:"name"`
	AccountType   string       `json:"accountType"`
	Balance       money.Amount `json:"balance"`
	Currency      string       `json:"currency"`
	CreatedAt     time.Time    `json:"createdTimestamp"`
	UpdatedAt     time.Time    `json:"updatedTimestamp"`
}

// AccountReadRepository handles all read operations for accounts.
// It treats Redis as the primary read store and falls back to PostgreSQL
// transparently, warming the cache on every cold read. Entries expire after
// the configured TTL and are invalidated on every write; a cold read that
// raced a write does not warm the cache.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[accountCacheEntry]
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[accountCacheEntry](redisClient, ttl, logger),
	}
}

func cacheEntryToView(e *accountCacheEntry) *models.AccountView {
	return &models.AccountView{
		AccountNumber: e.AccountNumber,
		UserID:        e.UserID,
		SortCode:      e.SortCode,
		Name:          e.Name,
		AccountType:   e.AccountType,
		Balance:       e.Balance,
		Currency:      e.Currency,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GetByAccountNumber returns an AccountView, trying Redis first then PostgreSQL.
func (r *AccountReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	key := accountViewKeyPrefix + accountNumber
	if entry, ok := r.cache.Get(ctx, key); ok {
		return cacheEntryToView(entry), nil
	}
	// Read before the row so a posting or delete that commits while the
	// query runs makes the fill below a no-op.
	version, canFill := r.cache.Version(ctx, key)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1 AND deleted_at IS NULL
	`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		return nil, err
	}

	view := account.View()
	if canFill {
		r.cache.Fill(ctx, key, version, toCacheEntry(view))
	}
	return view, nil
}

// ListByUserID returns all AccountViews for the given user from PostgreSQL.
func (r *AccountReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	views := make([]models.AccountView, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		views = append(views, *account.View())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return views, nil
}

// CacheAccountView stores or refreshes the Redis read model for an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Replace(ctx, accountViewKeyPrefix+view.AccountNumber, toCacheEntry(view))
}

func toCacheEntry(view *models.AccountView) *accountCacheEntry {
	return &accountCacheEntry{
		AccountNumber: view.AccountNumber,
		UserID:        view.UserID,
		SortCode:      view.SortCode,
		Name:          view.Name,
		AccountType:   view.AccountType,
		Balance:       view.Balance,
		Currency:      view.Currency,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}
}

// InvalidateAccountView removes the Redis read model entry for an account.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountNumber string) {
	r.cache.Invalidate(ctx, accountViewKeyPrefix+accountNumber)
}
