package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
)

const defaultLoginLimit = 10

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
	loginLimit     int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts
// per IP and minute; zero selects the default.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loginLimit <= 0 {
		loginLimit = defaultLoginLimit
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
		loginLimit:     loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.handleCSRF)
	r.With(httprate.Limit(h.loginLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
	r.Get("/token", h.handleToken)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionUser struct {
	EncryptedID string `json:"encrypted_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type loginResponse struct {
	Bearer    string      `json:"bearer"`
	ExpiresAt time.Time   `json:"expires_at"`
	Redirect  string      `json:"redirect"`
	CSRFToken string      `json:"csrf_token"`
	User      sessionUser `json:"user"`
}

type tokenResponse struct {
	Bearer    string    `json:"bearer"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": csrfToken})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Internal(w)
		return
	}

	var form loginRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.BadRequest(w)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.ValidationError(w, err)
		return
	}

	principal, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.Internal(w)
		return
	}

	claims, err := h.service.OnIssue(r.Context(), *principal)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		h.logger.Error("renew session", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	sess.SetClaims(claims)
	csrfToken, err := h.csrfManager.Rotate(r.Context(), sess)
	if err != nil {
		h.logger.Error("rotate csrf token", slog.Any("error", err))
		httpx.Internal(w)
		return
	}

	bearer, expiresAt, err := h.service.IssueBearer(claims)
	if err != nil {
		h.logger.Error("issue bearer", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	h.logger.Info("login succeeded", slog.String("role", claims.RoleName))
	httpx.JSON(w, http.StatusOK, loginResponse{
		Bearer:    bearer,
		ExpiresAt: expiresAt,
		Redirect:  shared.DashboardPath(claims.RoleName),
		CSRFToken: csrfToken,
		User:      userFromClaims(&claims),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	httpx.Message(w, "Logged out")
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	claims := shared.SessionFromContext(r.Context()).Claims()
	if !claims.Valid() {
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":         userFromClaims(claims),
		"issued_at":    claims.IssuedAt,
		"refreshed_at": claims.RefreshedAt,
		"expires_at":   claims.IssuedAt.Add(h.service.MaxAge()),
	})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	claims := shared.SessionFromContext(r.Context()).Claims()
	if !claims.Valid() {
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
		return
	}
	bearer, expiresAt, err := h.service.IssueBearer(*claims)
	if err != nil {
		h.logger.Error("issue bearer", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Bearer: bearer, ExpiresAt: expiresAt})
}

func userFromClaims(c *shared.SessionClaims) sessionUser {
	return sessionUser{EncryptedID: c.ID, Name: c.Name, Email: c.Email, Role: c.RoleName}
}
