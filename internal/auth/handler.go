package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	rbac           rbac.Middleware
	validator      *validator.Validate
	loginRateLimit int
}

// NewHandler constructs a Handler instance. loginRateLimit caps login
// attempts per IP per minute; zero disables the extra limit.
func NewHandler(logger *slog.Logger, service *Service, rbacMiddleware rbac.Middleware, loginRateLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		rbac:           rbacMiddleware,
		validator:      shared.NewValidator(),
		loginRateLimit: loginRateLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.loginRateLimit > 0 {
			r.Use(httprate.Limit(h.loginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Post("/login", h.handleLogin)
	})
	r.With(h.rbac.RequireAuthenticated).Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

type loginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

const (
	msgLoginOK     = "Login successfully"
	msgLoginFailed = "Error: Email or password are incorrect"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.JSON(w, http.StatusNotFound, messageResponse{Message: msgLoginFailed})
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		Message: msgLoginOK,
		Token:   token.Key,
		User: loginUser{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			IsStaff:  user.IsStaff,
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), rbac.PrincipalFromContext(r.Context())); err != nil {
		if httpx.RespondError(w, err) {
			h.logger.Error("logout", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
