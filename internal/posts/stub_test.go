package posts_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/posts"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
	_ "github.com/inkwell-blog/inkwell/testing"
)

type memoryRepo struct {
	mu        sync.Mutex
	posts     map[int64]posts.Post
	usernames map[int64]string
	nextID    int64
	clock     time.Time
	createErr error
}

func newMemoryRepo(usernames map[int64]string) *memoryRepo {
	return &memoryRepo{
		posts:     map[int64]posts.Post{},
		usernames: usernames,
		nextID:    1,
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepo) Create(ctx context.Context, in posts.NewPost) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return posts.Post{}, m.createErr
	}
	m.clock = m.clock.Add(time.Minute)
	p := posts.Post{
		ID:          m.nextID,
		Title:       in.Title,
		Description: in.Description,
		Created:     m.clock,
		AuthorID:    in.AuthorID,
		Author:      m.usernames[in.AuthorID],
	}
	m.nextID++
	m.posts[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return posts.Post{}, shared.NotFound("Post")
	}
	return p, nil
}

func (m *memoryRepo) sorted(keep func(posts.Post) bool, page shared.Page) []posts.Post {
	var out []posts.Post
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	if page.Offset >= len(out) {
		return nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out
}

func (m *memoryRepo) List(ctx context.Context, page shared.Page) ([]posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(posts.Post) bool { return true }, page), nil
}

func (m *memoryRepo) ListByOwner(ctx context.Context, ownerID int64, page shared.Page) ([]posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p posts.Post) bool { return p.AuthorID == ownerID }, page), nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, changes posts.Changes) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return posts.Post{}, shared.NotFound("Post")
	}
	if changes.Title != nil {
		p.Title = *changes.Title
	}
	if changes.Description != nil {
		p.Description = *changes.Description
	}
	m.posts[id] = p
	return p, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return false, nil
	}
	delete(m.posts, id)
	return true, nil
}

type auditSpy struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditSpy) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]bool{}}
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[module+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+"/"+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+"/"+key)
	return nil
}

type decisionCounter struct {
	mu     sync.Mutex
	denied int
	total  int
}

func (d *decisionCounter) ObserveDecision(action rbac.Action, decision rbac.Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.total++
	if !decision.Allowed {
		d.denied++
	}
}

// tokenStore maps keys to credentials for middleware-level tests.
type tokenStore map[string]auth.Credential

func (s tokenStore) LookupToken(ctx context.Context, key string) (auth.Credential, error) {
	c, ok := s[key]
	if !ok {
		return auth.Credential{}, shared.ErrNotFound
	}
	return c, nil
}

const (
	userA   int64 = 1
	userB   int64 = 2
	adminID int64 = 3
)

var (
	principalA     = rbac.Authenticated(userA, false)
	principalB     = rbac.Authenticated(userB, false)
	principalAdmin = rbac.Authenticated(adminID, true)
)

func testUsernames() map[int64]string {
	return map[int64]string{userA: "alice", userB: "bob", adminID: "root"}
}
