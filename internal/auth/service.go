package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	cache  *TokenCache
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo Repository, cache *TokenCache) *Service {
	return &Service{repo: repo, cache: cache, logger: slog.Default(), now: time.Now}
}

// WithLogger replaces the default logger and returns s.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, shared.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the user and returns their token, issuing one when the
// account has none yet.
func (s *Service) Login(ctx context.Context, email, password string) (*User, Token, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, Token{}, err
	}
	token, err := s.repo.TokenForUser(ctx, user.ID)
	if err == nil {
		return user, token, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, Token{}, fmt.Errorf("auth: token for user: %w", err)
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, Token{}, err
	}
	token, err = s.repo.CreateToken(ctx, user.ID, key)
	if errors.Is(err, shared.ErrDuplicate) {
		// Lost a race with a concurrent login; the winner's token is valid.
		token, err = s.repo.TokenForUser(ctx, user.ID)
	}
	if err != nil {
		return nil, Token{}, fmt.Errorf("auth: create token: %w", err)
	}
	return user, token, nil
}

// Logout invalidates the principal's current token by rotating it.
func (s *Service) Logout(ctx context.Context, p rbac.Principal) error {
	if !p.IsAuthenticated() {
		return shared.ErrAuthenticationRequired
	}
	key, err := GenerateKey()
	if err != nil {
		return err
	}
	oldKey, err := s.repo.RotateToken(ctx, p.UserID(), key)
	if err != nil {
		return err
	}
	// The rotation is committed; a stale cache entry ages out with its TTL.
	if err := s.cache.Evict(ctx, oldKey); err != nil {
		s.logger.Warn("evict rotated token", slog.Int64("user_id", p.UserID()), slog.Any("error", err))
	}
	return nil
}

// PurgeExpired deletes tokens older than maxAge. A non-positive maxAge
// means tokens never expire and nothing is deleted.
func (s *Service) PurgeExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	keys, err := s.repo.DeleteTokensBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("auth: purge tokens: %w", err)
	}
	if err := s.cache.Evict(ctx, keys...); err != nil {
		s.logger.Warn("evict purged tokens", slog.Int("count", len(keys)), slog.Any("error", err))
	}
	return len(keys), nil
}
