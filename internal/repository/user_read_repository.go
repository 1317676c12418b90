package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/eaglebank/eagle-bank-api/internal/models"
	sharedredis "github.com/eaglebank/eagle-bank-api/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	userViewKeyPrefix     = "user:view:"
	userAccountsKeyPrefix = "user:accounts:"
)

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
// It also keeps the per-user open account count projected from account events.
type UserReadRepository struct {
	db     *sql.DB
	redis  *goredis.Client
	cache  *sharedredis.ViewCache[models.UserView]
	logger *zap.Logger
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *UserReadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserReadRepository{
		db:     db,
		redis:  redisClient,
		cache:  sharedredis.NewViewCache[models.UserView](redisClient, 0, logger),
		logger: logger,
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	key := userViewKeyPrefix + id
	if view, ok := r.cache.Get(ctx, key); ok {
		return view, nil
	}
	version, canFill := r.cache.Version(ctx, key)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	view := user.View()
	if canFill {
		r.cache.Fill(ctx, key, version, view)
	}
	return view, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Replace(ctx, userViewKeyPrefix+view.ID, view)
}

// InvalidateUserView removes the Redis read model entry for a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	r.cache.Invalidate(ctx, userViewKeyPrefix+userID)
	r.cache.Delete(ctx, userAccountsKeyPrefix+userID)
}

func (r *UserReadRepository) IncrAccountCount(ctx context.Context, userID string) error {
	return r.redis.Incr(ctx, userAccountsKeyPrefix+userID).Err()
}

func (r *UserReadRepository) DecrAccountCount(ctx context.Context, userID string) error {
	return r.redis.Decr(ctx, userAccountsKeyPrefix+userID).Err()
}

// SetAccountCount overwrites the projected count, e.g. after it was found to
// disagree with PostgreSQL.
func (r *UserReadRepository) SetAccountCount(ctx context.Context, userID string, n int) error {
	return r.redis.Set(ctx, userAccountsKeyPrefix+userID, n, 0).Err()
}

// AccountCount returns the projected number of open accounts for a user.
// The second value is false when the projection has no entry or Redis is
// unavailable, in which case callers should count from PostgreSQL.
func (r *UserReadRepository) AccountCount(ctx context.Context, userID string) (int, bool) {
	raw, err := r.redis.Get(ctx, userAccountsKeyPrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.logger.Warn("account count read failed", zap.String("userId", userID), zap.Error(err))
		}
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
