package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// TokenStore resolves a token key to its owner. Implementations return
// shared.ErrNotFound for unknown keys.
type TokenStore interface {
	LookupToken(ctx context.Context, key string) (Credential, error)
}

// Repository defines persistence operations for auth module.
type Repository interface {
	TokenStore
	FindByEmail(ctx context.Context, email string) (*User, error)
	TokenForUser(ctx context.Context, userID int64) (Token, error)
	CreateToken(ctx context.Context, userID int64, key string) (Token, error)
	RotateToken(ctx context.Context, userID int64, newKey string) (oldKey string, err error)
	DeleteTokensBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id, email, username, password_hash, is_active, is_staff, is_superuser
		FROM users WHERE email = $1`
	var u User
	err := r.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// LookupToken resolves a key to the owning active user.
func (r *PGRepository) LookupToken(ctx context.Context, key string) (Credential, error) {
	const query = `SELECT u.id, u.is_staff OR u.is_superuser
		FROM auth_tokens t JOIN users u ON u.id = t.user_id
		WHERE t.key = $1 AND u.is_active`
	var c Credential
	if err := r.pool.QueryRow(ctx, query, key).Scan(&c.UserID, &c.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, shared.ErrNotFound
		}
		return Credential{}, err
	}
	return c, nil
}

// TokenForUser returns the user's current token.
func (r *PGRepository) TokenForUser(ctx context.Context, userID int64) (Token, error) {
	const query = `SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`
	var t Token
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&t.Key, &t.UserID, &t.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, shared.ErrNotFound
		}
		return Token{}, err
	}
	return t, nil
}

// CreateToken inserts a token for a user that has none.
func (r *PGRepository) CreateToken(ctx context.Context, userID int64, key string) (Token, error) {
	return InsertToken(ctx, r.pool, userID, key)
}

// RotateToken replaces the user's key and returns the previous one, or an
// empty string when the user had no token.
func (r *PGRepository) RotateToken(ctx context.Context, userID int64, newKey string) (string, error) {
	var oldKey string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT key FROM auth_tokens WHERE user_id = $1 FOR UPDATE`, userID).Scan(&oldKey)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err = InsertToken(ctx, tx, userID, newKey)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("auth: rotate token: %w", err)
	}
	return oldKey, nil
}

// DeleteTokensBefore removes tokens created before cutoff and returns their keys.
func (r *PGRepository) DeleteTokensBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM auth_tokens WHERE created_at < $1 RETURNING key`, cutoff)
	if err != nil {
		return nil, err
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertToken writes a token row using q, so callers can issue a token
// inside their own transaction.
func InsertToken(ctx context.Context, q Querier, userID int64, key string) (Token, error) {
	const query = `INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2) RETURNING key, user_id, created_at`
	var t Token
	if err := q.QueryRow(ctx, query, key, userID).Scan(&t.Key, &t.UserID, &t.Created); err != nil {
		if shared.IsUniqueViolation(err) {
			return Token{}, shared.ErrDuplicate
		}
		return Token{}, err
	}
	return t, nil
}

var _ Repository = (*PGRepository)(nil)
