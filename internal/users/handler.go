package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
)

// IDCodec converts between storage ids and opaque identifiers.
type IDCodec interface {
	SealID(id int64) (string, error)
	OpenID(token string) (int64, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	ids       IDCodec
	audit     shared.AuditRecorder
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ids IDCodec, audit shared.AuditRecorder, rbac rbac.Middleware) *Handler {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Handler{logger: logger, service: service, ids: ids, audit: audit, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers the admin user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.PermGetUser)).Get("/", h.listUsers)
	r.With(h.rbac.Require(shared.PermGetUser)).Get("/info", h.getUser)
	r.With(h.rbac.Require(shared.PermCreateUser)).Post("/", h.createUser)
	r.With(h.rbac.Require(shared.PermUpdateUser)).Put("/", h.updateUser)
	r.With(h.rbac.Require(shared.PermDeleteUser)).Delete("/", h.deleteUser)
}

// MountProfileRoutes registers self-service profile routes.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.PermUpdateProfile)).Put("/", h.updateProfile)
}

// MountGuestRoutes registers the public registration route.
func (h *Handler) MountGuestRoutes(r chi.Router) {
	r.Post("/register", h.register)
}

type userResponse struct {
	EncryptedID string    `json:"encrypted_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Photo       string    `json:"photo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Photo    string `json:"photo" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"omitempty,max=64"`
}

type updateUserRequest struct {
	EncryptedID string `json:"encrypted_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"omitempty,min=8,max=72"`
}

type profileRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type deleteUserRequest struct {
	EncryptedID string `json:"encrypted_id" validate:"required"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.service.List(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		resp, err := h.toResponse(&users[i])
		if err != nil {
			h.logger.Error("seal user id", slog.Any("error", err))
			httpx.Internal(w)
			return
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out, "total_count": total})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ids.OpenID(r.URL.Query().Get("encrypted_id"))
	if err != nil {
		httpx.InvalidID(w)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get user", err)
		return
	}
	h.respondUser(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.Create(r.Context(), CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Photo:    req.Photo,
		Role:     req.Role,
	})
	if err != nil {
		h.writeServiceError(w, "create user", err)
		return
	}
	h.recordAudit(r.Context(), shared.AuditCreate, user.ID)
	h.respondUser(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.ids.OpenID(req.EncryptedID)
	if err != nil {
		httpx.InvalidID(w)
		return
	}
	user, err := h.service.Update(r.Context(), id, UpdateInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeServiceError(w, "update user", err)
		return
	}
	h.recordAudit(r.Context(), shared.AuditUpdate, user.ID)
	h.respondUser(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.ids.OpenID(req.EncryptedID)
	if err != nil {
		httpx.InvalidID(w)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete user", err)
		return
	}
	h.recordAudit(r.Context(), shared.AuditDelete, id)
	httpx.Message(w, "User deleted")
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
		return
	}
	var req profileRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.ids.OpenID(identity.PrincipalID)
	if err != nil {
		// The principal id was minted by this server; failure means a stale secret.
		h.logger.Warn("open principal id", slog.Any("error", err))
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgInvalidToken)
		return
	}
	user, err := h.service.Update(r.Context(), id, UpdateInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeServiceError(w, "update profile", err)
		return
	}
	h.recordAudit(r.Context(), shared.AuditUpdate, user.ID)
	h.respondUser(w, http.StatusOK, user)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.Register(r.Context(), CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Photo:    req.Photo,
	})
	if errors.Is(err, ErrUnknownRole) {
		h.logger.Error("default role missing", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	if err != nil {
		h.writeServiceError(w, "register user", err)
		return
	}
	h.respondUser(w, http.StatusCreated, user)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.BadRequest(w)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.ValidationError(w, err)
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrDuplicateEmail):
		httpx.Error(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, ErrUnknownRole):
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: httpx.MsgInvalidRequest, Fields: map[string]string{"Role": "exists"}})
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Internal(w)
	}
}

func (h *Handler) respondUser(w http.ResponseWriter, status int, user *User) {
	resp, err := h.toResponse(user)
	if err != nil {
		h.logger.Error("seal user id", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) toResponse(u *User) (userResponse, error) {
	sealed, err := h.ids.SealID(u.ID)
	if err != nil {
		return userResponse{}, err
	}
	return userResponse{
		EncryptedID: sealed,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.RoleName,
		Photo:       u.Photo,
		CreatedAt:   u.CreatedAt,
	}, nil
}

func (h *Handler) recordAudit(ctx context.Context, action string, entityID int64) {
	var actorID int64
	if identity, ok := shared.IdentityFromContext(ctx); ok {
		actorID, _ = h.ids.OpenID(identity.PrincipalID)
	}
	if err := h.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", EntityID: entityID}); err != nil {
		h.logger.Warn("audit user change", slog.String("action", action), slog.Any("error", err))
	}
}
