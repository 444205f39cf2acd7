package users

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler manages account endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.With(h.rbac.RequireAuthenticated).Get("/userinfo", h.userInfo)
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email,max=100"`
	Username    string `json:"username" validate:"required,max=40"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Name        string `json:"name" validate:"max=50"`
	LastName    string `json:"last_name" validate:"max=200"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Name        *string   `json:"name"`
	LastName    *string   `json:"last_name"`
	DateOfBirth *string   `json:"date_of_birth"`
	IsStaff     bool      `json:"is_staff"`
	DateJoined  time.Time `json:"date_joined"`
	Posts       []string  `json:"posts"`
}

func toResponse(u User, posts []string) UserResponse {
	resp := UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Name:       optional(u.Name),
		LastName:   optional(u.LastName),
		IsStaff:    u.IsStaff,
		DateJoined: u.DateJoined,
		Posts:      posts,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	if resp.Posts == nil {
		resp.Posts = []string{}
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in := NewUser{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			httpx.RespondError(w, shared.FieldError("date_of_birth", "Date has wrong format. Use YYYY-MM-DD."))
			return
		}
		in.DateOfBirth = &dob
	}

	user, _, err := h.service.Register(r.Context(), in)
	if err != nil {
		if httpx.RespondError(w, err) {
			h.logger.Error("signup", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(user, nil))
}

func (h *Handler) userInfo(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), rbac.PrincipalFromContext(r.Context()))
	if err != nil {
		if httpx.RespondError(w, err) {
			h.logger.Error("userinfo", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(profile.User, profile.PostTitles))
}
