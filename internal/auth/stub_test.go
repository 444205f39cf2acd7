package auth_test

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/shared"
	_ "github.com/inkwell-blog/inkwell/testing"
)

type stubRepo struct {
	mu      sync.Mutex
	users   map[string]*auth.User
	tokens  map[string]auth.Token
	lookups int
	failErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]*auth.User{}, tokens: map[string]auth.Token{}}
}

func (s *stubRepo) addUser(u auth.User, password string) *auth.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u.PasswordHash = string(hash)
	s.users[u.Email] = &u
	return &u
}

func (s *stubRepo) addToken(userID int64, key string, created time.Time) {
	s.tokens[key] = auth.Token{Key: key, UserID: userID, Created: created}
}

func (s *stubRepo) userByID(id int64) *auth.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) LookupToken(ctx context.Context, key string) (auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.failErr != nil {
		return auth.Credential{}, s.failErr
	}
	t, ok := s.tokens[key]
	if !ok {
		return auth.Credential{}, shared.ErrNotFound
	}
	u := s.userByID(t.UserID)
	if u == nil || !u.IsActive {
		return auth.Credential{}, shared.ErrNotFound
	}
	return auth.Credential{UserID: u.ID, IsAdmin: u.IsAdmin()}, nil
}

func (s *stubRepo) TokenForUser(ctx context.Context, userID int64) (auth.Token, error) {
	for _, t := range s.tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return auth.Token{}, shared.ErrNotFound
}

func (s *stubRepo) CreateToken(ctx context.Context, userID int64, key string) (auth.Token, error) {
	if _, err := s.TokenForUser(ctx, userID); err == nil {
		return auth.Token{}, shared.ErrDuplicate
	}
	t := auth.Token{Key: key, UserID: userID, Created: time.Now()}
	s.tokens[key] = t
	return t, nil
}

func (s *stubRepo) RotateToken(ctx context.Context, userID int64, newKey string) (string, error) {
	var old string
	for k, t := range s.tokens {
		if t.UserID == userID {
			old = k
			delete(s.tokens, k)
		}
	}
	s.tokens[newKey] = auth.Token{Key: newKey, UserID: userID, Created: time.Now()}
	return old, nil
}

func (s *stubRepo) DeleteTokensBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var keys []string
	for k, t := range s.tokens {
		if t.Created.Before(cutoff) {
			keys = append(keys, k)
			delete(s.tokens, k)
		}
	}
	return keys, nil
}

var _ auth.Repository = (*stubRepo)(nil)
