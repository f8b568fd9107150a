package comments

import (
	"net/http"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for incident comments.
type Handler struct {
	service *Service
}

// NewHandler creates a new comments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers read routes available to every known user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/incidents/{id}/comments", h.List)
}

// RegisterResponderRoutes registers routes that require responder or admin.
func (h *Handler) RegisterResponderRoutes(r chi.Router) {
	r.Post("/incidents/{id}/comments", h.Create)
}

// CreateCommentRequest represents the request body for adding a comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

var commentErrors = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "Incident not found"},
}

// List handles GET /incidents/{id}/comments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, commentErrors)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// Create handles POST /incidents/{id}/comments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	typeErrors, err := httputil.DecodeJSON(r, &req, FieldTypeMessages)
	if err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}
	if len(typeErrors) > 0 {
		httputil.ValidationError(w, domain.NewValidationError("Invalid comment", typeErrors))
		return
	}

	c, err := h.service.Create(r.Context(), chi.URLParam(r, "id"), httputil.GetUser(r.Context()), req.Body)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, commentErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, c)
}
