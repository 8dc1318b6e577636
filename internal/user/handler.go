package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/cityreports/pkg/middleware"
	"github.com/fkhayef/cityreports/pkg/response"
)

// Handler handles HTTP requests for user operations
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new user handler with service dependency injected
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the router for user endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.Me)

	return r
}

// Me handles GET /users/me
// @Summary      Current user
// @Description  The authenticated caller, completed from the stored profile when one exists
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=User}
// @Failure      401 {object} response.APIResponse
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	me := &User{
		ID:    caller.ID,
		Email: caller.Email,
		Name:  caller.Name,
		Role:  ParseRole(caller.Role),
	}

	profile, err := h.service.GetByID(r.Context(), caller.ID)
	switch {
	case err == nil:
		if me.Email == "" {
			me.Email = profile.Email
		}
		if me.Name == "" || me.Name == me.ID {
			me.Name = profile.Name
		}
	case errors.Is(err, ErrUserNotFound):
		// token claims are enough
	default:
		h.logger.ErrorContext(r.Context(), "failed to load profile", "user_id", caller.ID, "error", err)
		response.InternalError(w, "Failed to get user")
		return
	}

	response.JSON(w, http.StatusOK, me)
}
