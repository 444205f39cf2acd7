package posts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// IdempotencyHeader lets clients make post creation safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes post endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: shared.NewValidator()}
}

// MountRoutes registers post routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.With(h.rbac.RequireAuthenticated).Get("/me", h.listMine)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.replace)
		r.Patch("/", h.patch)
		r.Delete("/", h.delete)
	})
}

type createRequest struct {
	Title       string `json:"title" validate:"required,max=50"`
	Description string `json:"description" validate:"required"`
}

// updateRequest is validated by the service after the write policy passes.
type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type deletedResponse struct {
	Message string `json:"Message"`
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.RespondError(w, err) {
		h.logger.Error(op, slog.Any("error", err))
	}
}

func page(r *http.Request) shared.Page {
	return shared.NewPage(httpx.QueryInt(r, "limit", 0), httpx.QueryInt(r, "offset", 0))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context(), rbac.PrincipalFromContext(r.Context()), page(r))
	if err != nil {
		h.fail(w, "list posts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(posts))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListByOwner(r.Context(), rbac.PrincipalFromContext(r.Context()), page(r))
	if err != nil {
		h.fail(w, "list own posts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, nonNil(posts))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.Int64Param(r, "postID", shared.NotFound("Post"))
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	post, err := h.service.Get(r.Context(), rbac.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	// Anonymous callers learn they must authenticate before any body validation.
	if !principal.IsAuthenticated() {
		h.fail(w, "create post", shared.ErrAuthenticationRequired)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, "create post", err)
		return
	}
	if err := shared.ValidateStruct(h.validator, req); err != nil {
		h.fail(w, "create post", err)
		return
	}
	post, err := h.service.Create(r.Context(), principal, CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := httpx.Int64Param(r, "postID", shared.NotFound("Post"))
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	principal := rbac.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		// A caller without write access hears about that, not about the body.
		if authErr := h.service.CheckWrite(r.Context(), principal, id); authErr != nil {
			err = authErr
		}
		h.fail(w, "update post", err)
		return
	}
	post, err := h.service.Update(r.Context(), principal, id,
		Changes{Title: req.Title, Description: req.Description}, partial)
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.Int64Param(r, "postID", shared.NotFound("Post"))
	if err != nil {
		h.fail(w, "delete post", err)
		return
	}
	if err := h.service.Delete(r.Context(), rbac.PrincipalFromContext(r.Context()), id); err != nil {
		h.fail(w, "delete post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, deletedResponse{Message: "Deleted"})
}

func nonNil(posts []Post) []Post {
	if posts == nil {
		return []Post{}
	}
	return posts
}
