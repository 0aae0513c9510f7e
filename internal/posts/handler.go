package posts

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

// Handler manages dashboard post endpoints.
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

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.PermGetPost)).Get("/", h.listPosts)
	r.With(h.rbac.Require(shared.PermCreatePost)).Post("/", h.createPost)
	r.With(h.rbac.Require(shared.PermDeletePost)).Delete("/", h.deletePost)
	r.With(h.rbac.Require(shared.PermDeletePost)).Post("/restore", h.restorePost)
}

type authorResponse struct {
	EncryptedID string `json:"encrypted_id"`
	Name        string `json:"name"`
	Photo       string `json:"photo,omitempty"`
}

type postResponse struct {
	EncryptedID string         `json:"encrypted_id"`
	Status      string         `json:"status"`
	Author      authorResponse `json:"author"`
	CreatedAt   time.Time      `json:"created_at"`
}

type createPostRequest struct {
	Status string `json:"status" validate:"required,max=1000"`
}

type postIDRequest struct {
	EncryptedID string `json:"encrypted_id" validate:"required"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.service.Feed(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.logger.Error("list posts failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	out := make([]postResponse, 0, len(items))
	for i := range items {
		resp, err := h.toResponse(&items[i])
		if err != nil {
			h.logger.Error("seal post id", slog.Any("error", err))
			httpx.Internal(w)
			return
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": out, "total_count": total})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
		return
	}
	var req createPostRequest
	if !h.decode(w, r, &req) {
		return
	}
	authorID, err := h.ids.OpenID(identity.PrincipalID)
	if err != nil {
		h.logger.Warn("open principal id", slog.Any("error", err))
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgInvalidToken)
		return
	}
	post, err := h.service.Publish(r.Context(), authorID, req.Status)
	if err != nil {
		if errors.Is(err, ErrEmptyStatus) {
			httpx.BadRequest(w)
			return
		}
		h.logger.Error("create post failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	h.recordAudit(r.Context(), authorID, shared.AuditCreate, post.ID)
	resp, err := h.toResponse(post)
	if err != nil {
		h.logger.Error("seal post id", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	h.changeState(w, r, shared.AuditDelete, h.service.Remove, "Post deleted")
}

func (h *Handler) restorePost(w http.ResponseWriter, r *http.Request) {
	h.changeState(w, r, shared.AuditUpdate, h.service.Restore, "Post restored")
}

func (h *Handler) changeState(w http.ResponseWriter, r *http.Request, action string, apply func(context.Context, int64) error, message string) {
	var req postIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.ids.OpenID(req.EncryptedID)
	if err != nil {
		httpx.InvalidID(w)
		return
	}
	if err := apply(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("post "+action+" failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	var actorID int64
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		actorID, _ = h.ids.OpenID(identity.PrincipalID)
	}
	h.recordAudit(r.Context(), actorID, action, id)
	httpx.Message(w, message)
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

func (h *Handler) toResponse(p *Post) (postResponse, error) {
	postID, err := h.ids.SealID(p.ID)
	if err != nil {
		return postResponse{}, err
	}
	authorID, err := h.ids.SealID(p.AuthorID)
	if err != nil {
		return postResponse{}, err
	}
	return postResponse{
		EncryptedID: postID,
		Status:      p.Status,
		Author:      authorResponse{EncryptedID: authorID, Name: p.AuthorName, Photo: p.AuthorPhoto},
		CreatedAt:   p.CreatedAt,
	}, nil
}

func (h *Handler) recordAudit(ctx context.Context, actorID int64, action string, postID int64) {
	if err := h.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "post", EntityID: postID}); err != nil {
		h.logger.Warn("audit post change", slog.String("action", action), slog.Any("error", err))
	}
}
