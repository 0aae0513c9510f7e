package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
)

// Replier answers chat messages.
type Replier interface {
	Reply(ctx context.Context, text string) (string, error)
}

// Handler manages chat endpoints.
type Handler struct {
	logger    *slog.Logger
	replier   Replier
	validator *validator.Validate
}

// NewHandler creates a chat handler.
func NewHandler(logger *slog.Logger, replier Replier) *Handler {
	return &Handler{logger: logger, replier: replier, validator: validator.New()}
}

// MountRoutes registers chat routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.chat)
}

type chatRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.IdentityFromContext(r.Context()); !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
		return
	}
	var req chatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	answer, err := h.replier.Reply(r.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			httpx.BadRequest(w)
		case errors.Is(err, ErrUnavailable):
			h.logger.Warn("inference reply failed", slog.Any("error", err))
			httpx.Error(w, http.StatusBadGateway, "Error fetching AI response")
		default:
			h.logger.Error("chat failed", slog.Any("error", err))
			httpx.Internal(w)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, chatResponse{Response: answer})
}
