package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/cityreports/internal/imagestore"
	"github.com/fkhayef/cityreports/pkg/middleware"
	"github.com/fkhayef/cityreports/pkg/response"
)

// ImageUploader stores a data URL image and returns its public URL
type ImageUploader interface {
	Upload(ctx context.Context, userID, dataURL string) (string, error)
}

// Handler handles HTTP requests for report operations
type Handler struct {
	service      *Service
	images       ImageUploader
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler creates a new report handler. images may be nil, in which case
// requests carrying an image are rejected.
func NewHandler(service *Service, images ImageUploader, logger *slog.Logger, maxBodyBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:      service,
		images:       images,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes returns the router for report endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	// Triage
	r.With(middleware.RequireAdmin).Get("/stats", h.Stats)
	r.With(middleware.RequireAdmin).Patch("/{id}/status", h.UpdateStatus)

	return r
}

// Create handles POST /reports
// @Summary      File a report
// @Description  Reports in a critical category (flood, landslide, accident, power-grid) alert every administrator
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateReportRequest true "Report"
// @Success      201 {object} response.APIResponse{data=ReportResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      413 {object} response.APIResponse
// @Router       /reports [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateReportRequest
	if err := response.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		if errors.Is(err, response.ErrBodyTooLarge) {
			response.RequestTooLarge(w, "Request body too large")
			return
		}
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(w, err.Error())
		return
	}

	rep := req.ToReport(caller.ID, caller.Name)

	if req.ImageDataURL != "" {
		if h.images == nil {
			response.BadRequest(w, "Image uploads are not enabled")
			return
		}
		url, err := h.images.Upload(r.Context(), caller.ID, req.ImageDataURL)
		if err != nil {
			if errors.Is(err, imagestore.ErrInvalidDataURL) {
				response.ValidationFailed(w, err.Error())
				return
			}
			h.logger.ErrorContext(r.Context(), "failed to upload report image", "user_id", caller.ID, "error", err)
			response.InternalError(w, "Failed to upload image")
			return
		}
		rep.ImageURL = &url
	}

	created, err := h.service.Create(r.Context(), rep)
	if err != nil {
		if errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrInvalidStatus) {
			response.ValidationFailed(w, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to create report", "user_id", caller.ID, "error", err)
		response.InternalError(w, "Failed to create report")
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}

// List handles GET /reports
// @Summary      List reports
// @Description  Newest first. Citizens use mine=true for their own reports.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category filter"
// @Param        status   query string false "Status filter"
// @Param        mine     query bool   false "Only the caller's reports"
// @Success      200 {object} response.APIResponse{data=[]ReportResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /reports [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Category: Category(q.Get("category")),
		Status:   Status(q.Get("status")),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		response.BadRequest(w, "Invalid category filter")
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.BadRequest(w, "Invalid status filter")
		return
	}
	if q.Get("mine") == "true" {
		filter.UserID = caller.ID
	}

	reports, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list reports", "error", err)
		response.InternalError(w, "Failed to list reports")
		return
	}

	out := make([]*ReportResponse, len(reports))
	for i, rep := range reports {
		out[i] = rep.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, &response.Meta{Total: len(out)})
}

// Stats handles GET /reports/stats
// @Summary      Report counters
// @Description  Totals by status and category for the admin dashboard
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=Stats}
// @Failure      403 {object} response.APIResponse
// @Router       /reports/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute report stats", "error", err)
		response.InternalError(w, "Failed to compute stats")
		return
	}

	response.JSON(w, http.StatusOK, stats)
}

// UpdateStatus handles PATCH /reports/{id}/status
// @Summary      Change report status
// @Description  Admin only. Notifies the submitter unless disabled by configuration.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string              true "Report ID"
// @Param        request body UpdateStatusRequest true "Target status"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /reports/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := response.DecodeJSON(w, r, &req, h.maxBodyBytes); err != nil {
		if errors.Is(err, response.ErrBodyTooLarge) {
			response.RequestTooLarge(w, "Request body too large")
			return
		}
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(w, err.Error())
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		if errors.Is(err, ErrInvalidStatus) {
			response.ValidationFailed(w, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to update report status", "report_id", id, "error", err)
		response.InternalError(w, "Failed to update report status")
		return
	}

	response.JSON(w, http.StatusOK, updated.ToResponse())
}
