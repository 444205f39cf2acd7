package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inkwell-blog/inkwell/internal/app"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/posts"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
	"github.com/inkwell-blog/inkwell/internal/users"
)

type seedAccount struct {
	email    string
	username string
	password string
	admin    bool
	posts    []posts.CreateInput
}

var accounts = []seedAccount{
	{email: "admin@inkwell.local", username: "admin", password: "admin12345", admin: true},
	{email: "alice@inkwell.local", username: "alice", password: "alice12345", posts: []posts.CreateInput{
		{Title: "Hello Inkwell", Description: "First post on the new blog."},
		{Title: "Notes on tokens", Description: "Every account carries exactly one token."},
	}},
	{email: "bob@inkwell.local", username: "bob", password: "bob1234567", posts: []posts.CreateInput{
		{Title: "Bob was here", Description: "Only Bob or an admin may edit this post."},
	}},
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	usersService := users.NewService(users.NewRepository(pool), nil, logger)
	postsService := posts.NewService(posts.NewRepository(pool), shared.NewAuditLogger(pool), nil, nil, logger)

	for _, acc := range accounts {
		if err := seed(ctx, usersService, postsService, acc); err != nil {
			logger.Error("seed account", slog.String("email", acc.email), slog.Any("error", err))
			os.Exit(1)
		}
	}
	fmt.Println("seed complete at", time.Now().Format(time.RFC3339))
}

// seed registers acc and its posts. Accounts that already exist are left untouched.
func seed(ctx context.Context, us *users.Service, ps *posts.Service, acc seedAccount) error {
	user, token, err := us.Register(ctx, users.NewUser{
		Email:       acc.email,
		Username:    acc.username,
		Password:    acc.password,
		IsStaff:     acc.admin,
		IsSuperuser: acc.admin,
	})
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		fmt.Printf("skip %s: already registered\n", acc.email)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("user %-8s id=%d token=%s\n", user.Username, user.ID, token.Key)

	principal := rbac.Authenticated(user.ID, acc.admin)
	for _, in := range acc.posts {
		post, err := ps.Create(ctx, principal, in)
		if err != nil {
			return fmt.Errorf("create post %q: %w", in.Title, err)
		}
		fmt.Printf("  post id=%d %q\n", post.ID, post.Title)
	}
	return nil
}
