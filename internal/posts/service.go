package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// MaxTitleLength bounds titles in runes.
const MaxTitleLength = 50

const idempotencyModule = "posts.create"

// AuditPort records post mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards create requests carrying an Idempotency-Key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// DecisionObserver is notified of every policy evaluation.
type DecisionObserver interface {
	ObserveDecision(action rbac.Action, decision rbac.Decision)
}

// Service applies the post access policy around the repository.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
	observer    DecisionObserver
	logger      *slog.Logger
}

// NewService constructs the posts service. audit, idempotency and observer may be nil.
func NewService(repo Repository, audit AuditPort, idempotency IdempotencyPort, observer DecisionObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idempotency, observer: observer, logger: logger}
}

// CreateInput is the client-supplied part of a new post.
type CreateInput struct {
	Title          string
	Description    string
	IdempotencyKey string
}

func (s *Service) authorize(p rbac.Principal, action rbac.Action, owner *int64) error {
	decision := rbac.Evaluate(p, action, owner, p.IsAdmin())
	if s.observer != nil {
		s.observer.ObserveDecision(action, decision)
	}
	if !decision.Allowed {
		s.logger.Debug("post access denied",
			slog.String("principal", p.String()),
			slog.String("action", action.String()),
			slog.String("reason", string(decision.Reason)))
	}
	return decision.Err()
}

// List returns posts newest first. Anyone may list.
func (s *Service) List(ctx context.Context, p rbac.Principal, page shared.Page) ([]Post, error) {
	if err := s.authorize(p, rbac.ActionRead, nil); err != nil {
		return nil, err
	}
	posts, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("posts: list: %w", err)
	}
	return posts, nil
}

// ListByOwner returns the principal's own posts.
func (s *Service) ListByOwner(ctx context.Context, p rbac.Principal, page shared.Page) ([]Post, error) {
	if !p.IsAuthenticated() {
		return nil, shared.ErrAuthenticationRequired
	}
	posts, err := s.repo.ListByOwner(ctx, p.UserID(), page)
	if err != nil {
		return nil, fmt.Errorf("posts: list by owner: %w", err)
	}
	return posts, nil
}

// Get loads a single post.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id int64) (Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if err := s.authorize(p, rbac.ActionRead, post.Owner()); err != nil {
		return Post{}, err
	}
	return post, nil
}

// Create stores a post owned by the principal.
func (s *Service) Create(ctx context.Context, p rbac.Principal, in CreateInput) (Post, error) {
	if err := s.authorize(p, rbac.ActionCreate, nil); err != nil {
		return Post{}, err
	}
	if err := validateTitle(in.Title); err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return Post{}, shared.FieldError("description", "This field is required.")
	}

	key := ""
	if in.IdempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("%d:%s", p.UserID(), in.IdempotencyKey)
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Post{}, err
		}
	}

	post, err := s.repo.Create(ctx, NewPost{Title: in.Title, Description: in.Description, AuthorID: p.UserID()})
	if err != nil {
		if key != "" {
			if delErr := s.idempotency.Delete(ctx, key, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return Post{}, err
	}
	s.recordAudit(ctx, p, "post.created", post.ID, map[string]any{"title": post.Title})
	return post, nil
}

// Update changes title and/or description. When partial is false both
// fields must be present.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id int64, changes Changes, partial bool) (Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if err := s.authorize(p, rbac.ActionWrite, post.Owner()); err != nil {
		return Post{}, err
	}

	if !partial {
		fields := map[string]string{}
		if changes.Title == nil {
			fields["title"] = "This field is required."
		}
		if changes.Description == nil {
			fields["description"] = "This field is required."
		}
		if len(fields) > 0 {
			return Post{}, &shared.ValidationError{Fields: fields}
		}
	}
	if changes.Title != nil {
		if err := validateTitle(*changes.Title); err != nil {
			return Post{}, err
		}
	}
	if changes.Description != nil && strings.TrimSpace(*changes.Description) == "" {
		return Post{}, shared.FieldError("description", "This field may not be blank.")
	}
	if changes.Empty() {
		return post, nil
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return Post{}, err
	}
	s.recordAudit(ctx, p, "post.updated", id, map[string]any{"partial": partial})
	return updated, nil
}

// CheckWrite loads the post and applies the write policy without changing
// anything. Handlers use it to rank policy errors above body errors.
func (s *Service) CheckWrite(ctx context.Context, p rbac.Principal, id int64) error {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.authorize(p, rbac.ActionWrite, post.Owner())
}

// Delete removes a post permanently.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id int64) error {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, rbac.ActionDelete, post.Owner()); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.NotFound("Post")
	}
	s.recordAudit(ctx, p, "post.deleted", id, map[string]any{"title": post.Title, "author_id": post.AuthorID})
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return shared.FieldError("title", "This field may not be blank.")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return shared.FieldError("title", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, p rbac.Principal, action string, postID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:   p.UserID(),
		Action:    action,
		Entity:    "post",
		EntityID:  strconv.FormatInt(postID, 10),
		RequestID: shared.RequestIDFromContext(ctx),
		Meta:      meta,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
