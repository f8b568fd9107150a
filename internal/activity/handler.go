package activity

import (
	"net/http"
	"strconv"

	"github.com/bissquit/opsdesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// MaxLimit bounds the limit query parameter.
const MaxLimit = 500

// Handler handles HTTP requests for the activity feed.
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers activity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/activity", h.List)
}

var activityErrors = []httputil.ErrorMapping{
	{Error: ErrForcedFailure, Status: http.StatusInternalServerError, Message: "Deterministic forced activity failure"},
}

// List handles GET /activity.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ListOptions{ForceError: q.Get("forceError") == "true"}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.Limit = min(n, MaxLimit)
		}
	}

	items, err := h.service.List(r.Context(), opts)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, activityErrors)
		return
	}

	httputil.Success(w, http.StatusOK, items)
}
