package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, username, password_hash, COALESCE(name, ''), COALESCE(last_name, ''),
	date_of_birth, is_staff, is_superuser, is_active, date_joined`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Name, &u.LastName,
		&u.DateOfBirth, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.DateJoined)
	return u, err
}

// CreateWithToken inserts the user and their first token atomically.
func (r *Repository) CreateWithToken(ctx context.Context, u User, tokenKey string) (User, auth.Token, error) {
	var created User
	var token auth.Token
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO users
			(email, username, password_hash, name, last_name, date_of_birth, is_staff, is_superuser)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
			RETURNING `+userColumns,
			u.Email, u.Username, u.PasswordHash, u.Name, u.LastName, u.DateOfBirth, u.IsStaff, u.IsSuperuser)
		var err error
		created, err = scanUser(row)
		if err != nil {
			if shared.IsUniqueViolation(err) {
				return shared.ErrDuplicate
			}
			return err
		}
		token, err = auth.InsertToken(ctx, tx, created.ID, tokenKey)
		return err
	})
	if err != nil {
		return User{}, auth.Token{}, fmt.Errorf("users: create: %w", err)
	}
	return created, token, nil
}

// Get returns a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.NotFound("User")
		}
		return User{}, err
	}
	return u, nil
}

// PostTitles returns the titles of posts authored by userID, newest first.
func (r *Repository) PostTitles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT title FROM posts WHERE author_id = $1 ORDER BY created DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return titles, nil
}
