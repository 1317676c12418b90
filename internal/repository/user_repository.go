package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/eagle-bank-api/internal/models"
)

const userColumns = `id, name, email, password_hash, phone_number,
	address_line1, address_line2, address_line3, address_town, address_county, address_postcode,
	created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var line2, line3 sql.NullString

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.PhoneNumber,
		&user.Address.Line1, &line2, &line3, &user.Address.Town, &user.Address.County, &user.Address.Postcode,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if line2.Valid {
		user.Address.Line2 = line2.String
	}
	if line3.Valid {
		user.Address.Line3 = line3.String
	}
	return &user, nil
}

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Create inserts a new user. It returns ErrDuplicateKey when the email is
// already registered to an active user.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail is used by login to verify credentials.
func (r *UserWriteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserWriteRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone_number = $4,
			address_line1 = $5, address_line2 = $6, address_line3 = $7,
			address_town = $8, address_county = $9, address_postcode = $10,
			updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(result, ErrUserNotFound)
}

func (r *UserWriteRepository) Delete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result, ErrUserNotFound)
}
