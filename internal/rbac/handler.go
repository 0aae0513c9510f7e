package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
)

// IDSealer turns storage ids into opaque identifiers.
type IDSealer interface {
	SealID(id int64) (string, error)
}

// Handler exposes read-only role and permission listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
	ids     IDSealer
	rbac    Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ids IDSealer, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, ids: ids, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.PermGetRole)).Get("/", h.listRoles)
	r.With(h.rbac.Require(shared.PermGetRole)).Get("/permissions", h.listPermissions)
}

type permissionResponse struct {
	EncryptedID string `json:"encrypted_id"`
	Name        string `json:"name"`
}

type roleResponse struct {
	EncryptedID string   `json:"encrypted_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		sealed, err := h.ids.SealID(role.ID)
		if err != nil {
			h.logger.Error("seal role id", slog.Any("error", err))
			httpx.Internal(w)
			return
		}
		out = append(out, roleResponse{EncryptedID: sealed, Name: role.Name, Permissions: role.PermissionNames()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		sealed, err := h.ids.SealID(p.ID)
		if err != nil {
			h.logger.Error("seal permission id", slog.Any("error", err))
			httpx.Internal(w)
			return
		}
		out = append(out, permissionResponse{EncryptedID: sealed, Name: p.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}
