package training

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
)

const (
	submissionData     = "data"
	submissionResponse = "response"
)

// Handler manages train-model endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers train-model routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.PermGetData)).Get("/", h.listLabels)
	r.With(h.rbac.RequireAny(shared.PermCreateData, shared.PermCreateResponse)).Post("/", h.submit)
	r.With(h.rbac.Require(shared.PermCreateData)).Post("/train", h.train)
}

type labelResponse struct {
	Label string `json:"label"`
}

type submission struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Label     string          `json:"label"`
	Responses json.RawMessage `json:"responses"`
}

type dataRequest struct {
	Text  string `validate:"required,max=2000"`
	Label string `validate:"required,max=255"`
}

type responseRequest struct {
	Label     string   `validate:"required,max=255"`
	Responses []string `validate:"required,min=1,dive,max=2000"`
}

func (h *Handler) listLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.Labels(r.Context())
	if err != nil {
		h.logger.Error("list labels failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	out := make([]labelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelResponse{Label: l})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submission
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w)
		return
	}
	switch req.Type {
	case submissionData:
		if !h.rbac.Check(w, r, shared.PermCreateData) {
			return
		}
		h.addSample(w, r, dataRequest{Text: req.Text, Label: req.Label})
	case submissionResponse:
		if !h.rbac.Check(w, r, shared.PermCreateResponse) {
			return
		}
		var responses []string
		if len(req.Responses) > 0 {
			if err := json.Unmarshal(req.Responses, &responses); err != nil {
				httpx.Error(w, http.StatusBadRequest, "Responses must be a non-empty array")
				return
			}
		}
		h.addResponses(w, r, responseRequest{Label: req.Label, Responses: responses})
	default:
		httpx.Error(w, http.StatusBadRequest, "Unknown submission type")
	}
}

func (h *Handler) addSample(w http.ResponseWriter, r *http.Request, req dataRequest) {
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	if _, err := h.service.AddSample(r.Context(), req.Text, req.Label); err != nil {
		if errors.Is(err, ErrEmptyField) {
			httpx.BadRequest(w)
			return
		}
		h.logger.Error("add training data failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.Message(w, "Data has been added successfully")
}

func (h *Handler) addResponses(w http.ResponseWriter, r *http.Request, req responseRequest) {
	if len(req.Responses) == 0 {
		httpx.Error(w, http.StatusBadRequest, "Responses must be a non-empty array")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	if _, err := h.service.AddResponses(r.Context(), req.Label, req.Responses); err != nil {
		switch {
		case errors.Is(err, ErrNoResponses):
			httpx.Error(w, http.StatusBadRequest, "Responses must be a non-empty array")
		case errors.Is(err, ErrEmptyField):
			httpx.BadRequest(w)
		default:
			h.logger.Error("add training responses failed", slog.Any("error", err))
			httpx.Internal(w)
		}
		return
	}
	httpx.Message(w, "Responses have been added successfully")
}

func (h *Handler) train(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.service.RequestTraining(r.Context())
	if err != nil {
		h.logger.Error("enqueue model training failed", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	h.logger.Info("model training enqueued", slog.String("job_id", jobID))
	httpx.JSON(w, http.StatusAccepted, map[string]string{"message": "Training started", "job_id": jobID})
}
