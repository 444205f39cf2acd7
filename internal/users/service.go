package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	CreateWithToken(ctx context.Context, u User, tokenKey string) (User, auth.Token, error)
	Get(ctx context.Context, id int64) (User, error)
	PostTitles(ctx context.Context, userID int64) ([]string, error)
}

// Notifier is told about new registrations.
type Notifier interface {
	UserRegistered(ctx context.Context, userID int64, email, username string) error
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	notifier   Notifier
	logger     *slog.Logger
	bcryptCost int
}

// Option customises a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService builds Service instance. notifier may be nil.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, notifier: notifier, logger: logger, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and its token. The welcome notification is
// best effort and never fails the registration.
func (s *Service) Register(ctx context.Context, in NewUser) (User, auth.Token, error) {
	if in.Password == "" {
		return User{}, auth.Token{}, shared.FieldError("password", "This field is required.")
	}
	tooLong := shared.FieldError("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", MaxPasswordBytes))
	if len(in.Password) > MaxPasswordBytes {
		return User{}, auth.Token{}, tooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return User{}, auth.Token{}, tooLong
	}
	if err != nil {
		return User{}, auth.Token{}, fmt.Errorf("users: hash password: %w", err)
	}
	key, err := auth.GenerateKey()
	if err != nil {
		return User{}, auth.Token{}, err
	}

	user, token, err := s.repo.CreateWithToken(ctx, User{
		Email:        shared.NormalizeEmail(in.Email),
		Username:     shared.NormalizeUsername(in.Username),
		PasswordHash: string(hash),
		Name:         in.Name,
		LastName:     in.LastName,
		DateOfBirth:  in.DateOfBirth,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		IsActive:     true,
	}, key)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return User{}, auth.Token{}, shared.FieldError("email", "user with this email address already exists.")
		}
		return User{}, auth.Token{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.UserRegistered(ctx, user.ID, user.Email, user.Username); err != nil {
			s.logger.Warn("enqueue welcome mail", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, token, nil
}

// Profile loads the principal's account and post titles.
func (s *Service) Profile(ctx context.Context, p rbac.Principal) (Profile, error) {
	if !p.IsAuthenticated() {
		return Profile{}, shared.ErrAuthenticationRequired
	}
	var profile Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.repo.Get(gctx, p.UserID())
		profile.User = u
		return err
	})
	g.Go(func() error {
		titles, err := s.repo.PostTitles(gctx, p.UserID())
		profile.PostTitles = titles
		return err
	})
	if err := g.Wait(); err != nil {
		return Profile{}, fmt.Errorf("users: profile: %w", err)
	}
	if profile.PostTitles == nil {
		profile.PostTitles = []string{}
	}
	return profile, nil
}
