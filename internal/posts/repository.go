package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Repository defines persistence operations for posts.
type Repository interface {
	Create(ctx context.Context, in NewPost) (Post, error)
	Get(ctx context.Context, id int64) (Post, error)
	List(ctx context.Context, page shared.Page) ([]Post, error)
	ListByOwner(ctx context.Context, ownerID int64, page shared.Page) ([]Post, error)
	Update(ctx context.Context, id int64, changes Changes) (Post, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectPost = `SELECT p.id, p.title, p.description, p.created, p.author_id, u.username
	FROM posts p JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Created, &p.AuthorID, &p.Author)
	return p, err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFound("Post")
	}
	return err
}

// Create inserts a post and returns it with the author's username.
func (r *PGRepository) Create(ctx context.Context, in NewPost) (Post, error) {
	const query = `WITH inserted AS (
			INSERT INTO posts (title, description, author_id) VALUES ($1, $2, $3)
			RETURNING id, title, description, created, author_id
		)
		SELECT i.id, i.title, i.description, i.created, i.author_id, u.username
		FROM inserted i JOIN users u ON u.id = i.author_id`
	p, err := scanPost(r.pool.QueryRow(ctx, query, in.Title, in.Description, in.AuthorID))
	if err != nil {
		return Post{}, fmt.Errorf("posts: create: %w", err)
	}
	return p, nil
}

// Get fetches a post by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, selectPost+` WHERE p.id = $1`, id))
	if err != nil {
		return Post{}, notFound(err)
	}
	return p, nil
}

// List returns posts newest first.
func (r *PGRepository) List(ctx context.Context, page shared.Page) ([]Post, error) {
	return r.list(ctx, selectPost+` ORDER BY p.created DESC, p.id DESC`, page)
}

// ListByOwner returns the posts authored by ownerID, newest first.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64, page shared.Page) ([]Post, error) {
	return r.list(ctx, selectPost+` WHERE p.author_id = $1 ORDER BY p.created DESC, p.id DESC`, page, ownerID)
}

func (r *PGRepository) list(ctx context.Context, query string, page shared.Page, args ...any) ([]Post, error) {
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Post, error) {
		return scanPost(row)
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Update applies changes to title and description. The author and creation
// time are never written.
func (r *PGRepository) Update(ctx context.Context, id int64, changes Changes) (Post, error) {
	const query = `WITH updated AS (
			UPDATE posts SET title = COALESCE($2, title), description = COALESCE($3, description)
			WHERE id = $1
			RETURNING id, title, description, created, author_id
		)
		SELECT d.id, d.title, d.description, d.created, d.author_id, u.username
		FROM updated d JOIN users u ON u.id = d.author_id`
	p, err := scanPost(r.pool.QueryRow(ctx, query, id, changes.Title, changes.Description))
	if err != nil {
		return Post{}, notFound(err)
	}
	return p, nil
}

// Delete removes a post and reports whether a row existed.
func (r *PGRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("posts: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ Repository = (*PGRepository)(nil)
