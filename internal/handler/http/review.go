package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/reviewpulse/pkg/errors"
	"github.com/utafrali/reviewpulse/pkg/httputil"
	"github.com/utafrali/reviewpulse/pkg/validator"

	"github.com/utafrali/reviewpulse/internal/service"
)

// ReviewHandler handles HTTP requests for the review pipeline endpoints.
type ReviewHandler struct {
	service *service.ObserverService
	logger  *slog.Logger
}

func NewReviewHandler(svc *service.ObserverService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProcessReviewsRequest is the JSON request body for running the pipeline.
type ProcessReviewsRequest struct {
	Stores []StoreRequestDTO `json:"stores" validate:"required,min=1,dive"`
}

// StoreRequestDTO names one store and its applications.
type StoreRequestDTO struct {
	Type string          `json:"type" validate:"required"`
	Apps []AppRequestDTO `json:"apps" validate:"required,min=1,dive"`
}

// AppRequestDTO identifies one application within a store.
type AppRequestDTO struct {
	AppType     string `json:"app_type" validate:"required"`
	PackageName string `json:"package_name" validate:"required"`
}

type processReviewsResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Stats   service.Stats `json:"stats"`
}

// ProcessReviews handles POST /api/v1/reviews/process
func (h *ReviewHandler) ProcessReviews(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ProcessReviewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	stores := make([]service.StoreRequest, len(req.Stores))
	for i, s := range req.Stores {
		apps := make([]service.AppRequest, len(s.Apps))
		for j, a := range s.Apps {
			apps[j] = service.AppRequest{
				AppType:     a.AppType,
				PackageName: a.PackageName,
			}
		}
		stores[i] = service.StoreRequest{Type: s.Type, Apps: apps}
	}

	stats, err := h.service.ProcessReviews(r.Context(), stores)
	if err != nil {
		// Metric delivery failures do not undo the pipeline's work; report
		// them as a warning alongside the stats.
		if errors.Is(err, apperrors.ErrMetricsAPI) {
			httputil.WriteJSON(w, http.StatusOK, processReviewsResponse{
				Status:  "warning",
				Message: "reviews processed, metric delivery incomplete",
				Stats:   stats,
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, processReviewsResponse{
		Status:  "success",
		Message: "reviews processed",
		Stats:   stats,
	})
}
