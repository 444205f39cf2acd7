package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/posts"
	"github.com/inkwell-blog/inkwell/internal/shared"
	"github.com/inkwell-blog/inkwell/internal/users"
)

// memStore backs the auth, users and posts repositories for router tests.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]users.User
	tokens map[string]auth.Token
	posts  map[int64]posts.Post
	nextID int64
	clock  time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]users.User{},
		tokens: map[string]auth.Token{},
		posts:  map[int64]posts.Post{},
		nextID: 1,
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) setAdmin(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.IsStaff = true
	m.users[id] = u
}

type authRepo struct{ *memStore }

func (r authRepo) LookupToken(ctx context.Context, key string) (auth.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[key]
	if !ok {
		return auth.Credential{}, shared.ErrNotFound
	}
	u := r.users[t.UserID]
	if !u.IsActive {
		return auth.Credential{}, shared.ErrNotFound
	}
	return auth.Credential{UserID: u.ID, IsAdmin: u.IsStaff || u.IsSuperuser}, nil
}

func (r authRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &auth.User{ID: u.ID, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash,
				IsActive: u.IsActive, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r authRepo) TokenForUser(ctx context.Context, userID int64) (auth.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return auth.Token{}, shared.ErrNotFound
}

func (r authRepo) CreateToken(ctx context.Context, userID int64, key string) (auth.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := auth.Token{Key: key, UserID: userID, Created: r.tick()}
	r.tokens[key] = t
	return t, nil
}

func (r authRepo) RotateToken(ctx context.Context, userID int64, newKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := ""
	for k, t := range r.tokens {
		if t.UserID == userID {
			old = k
			delete(r.tokens, k)
		}
	}
	r.tokens[newKey] = auth.Token{Key: newKey, UserID: userID, Created: r.tick()}
	return old, nil
}

func (r authRepo) DeleteTokensBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for k, t := range r.tokens {
		if t.Created.Before(cutoff) {
			keys = append(keys, k)
			delete(r.tokens, k)
		}
	}
	return keys, nil
}

type userRepo struct{ *memStore }

func (r userRepo) CreateWithToken(ctx context.Context, u users.User, tokenKey string) (users.User, auth.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return users.User{}, auth.Token{}, shared.ErrDuplicate
		}
	}
	u.ID = r.nextID
	r.nextID++
	u.DateJoined = r.tick()
	r.users[u.ID] = u
	t := auth.Token{Key: tokenKey, UserID: u.ID, Created: u.DateJoined}
	r.tokens[tokenKey] = t
	return u, t, nil
}

func (r userRepo) Get(ctx context.Context, id int64) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return users.User{}, shared.NotFound("User")
	}
	return u, nil
}

func (r userRepo) PostTitles(ctx context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var titles []string
	for _, p := range r.ownedLocked(userID) {
		titles = append(titles, p.Title)
	}
	return titles, nil
}

func (m *memStore) ownedLocked(userID int64) []posts.Post {
	var out []posts.Post
	for _, p := range m.posts {
		if userID == 0 || p.AuthorID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type postRepo struct{ *memStore }

func (r postRepo) Create(ctx context.Context, in posts.NewPost) (posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := posts.Post{ID: r.nextID, Title: in.Title, Description: in.Description, Created: r.tick(),
		AuthorID: in.AuthorID, Author: r.users[in.AuthorID].Username}
	r.nextID++
	r.posts[p.ID] = p
	return p, nil
}

func (r postRepo) Get(ctx context.Context, id int64) (posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return posts.Post{}, shared.NotFound("Post")
	}
	return p, nil
}

func (r postRepo) List(ctx context.Context, page shared.Page) ([]posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownedLocked(0), nil
}

func (r postRepo) ListByOwner(ctx context.Context, ownerID int64, page shared.Page) ([]posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownedLocked(ownerID), nil
}

func (r postRepo) Update(ctx context.Context, id int64, changes posts.Changes) (posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return posts.Post{}, shared.NotFound("Post")
	}
	if changes.Title != nil {
		p.Title = *changes.Title
	}
	if changes.Description != nil {
		p.Description = *changes.Description
	}
	r.posts[id] = p
	return p, nil
}

func (r postRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.posts[id]
	delete(r.posts, id)
	return ok, nil
}
