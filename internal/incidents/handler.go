package incidents

import (
	"net/http"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service *Service
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers read routes available to every known user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/incidents", h.List)
	r.Get("/incidents/{id}", h.Get)
}

// RegisterResponderRoutes registers mutation routes (responder or admin).
func (h *Handler) RegisterResponderRoutes(r chi.Router) {
	r.Post("/incidents", h.Create)
	r.Patch("/incidents/{id}", h.Patch)
	r.Delete("/incidents/{id}", h.Delete)
	r.Post("/incidents/{id}/reopen", h.Reopen)
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    domain.Severity `json:"severity"`
	Tags        []string        `json:"tags"`
	ServiceID   *string         `json:"serviceId"`
}

// ToInput converts the request to service input.
func (r *CreateIncidentRequest) ToInput(typeErrors domain.FieldErrors) CreateInput {
	return CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		Tags:        r.Tags,
		ServiceID:   r.ServiceID,
		TypeErrors:  typeErrors,
	}
}

// PatchIncidentRequest represents a partial update. Absent fields are left
// unchanged; commanderId and serviceId may be null to clear them.
type PatchIncidentRequest struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Severity    *domain.Severity          `json:"severity"`
	Tags        domain.Nullable[[]string] `json:"tags"`
	CommanderID domain.Nullable[string]   `json:"commanderId"`
	ServiceID   domain.Nullable[string]   `json:"serviceId"`
	Status      *domain.IncidentStatus    `json:"status"`
}

// ToInput converts the request to service input.
func (r *PatchIncidentRequest) ToInput(typeErrors domain.FieldErrors) PatchInput {
	return PatchInput{
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		Tags:        r.Tags,
		CommanderID: r.CommanderID,
		ServiceID:   r.ServiceID,
		Status:      r.Status,
		TypeErrors:  typeErrors,
	}
}

var incidentErrors = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "Incident not found"},
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Status:    domain.IncidentStatus(q.Get("status")),
		Severity:  domain.Severity(q.Get("severity")),
		ServiceID: q.Get("serviceId"),
		Breached:  BreachFilter(q.Get("breached")),
		Q:         q.Get("q"),
	}

	views, err := h.service.List(r.Context(), filter, ParseSort(q.Get("sort")))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.Success(w, http.StatusOK, views)
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.Success(w, http.StatusOK, h.service.View(inc))
}

// Create handles POST /incidents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	typeErrors, err := httputil.DecodeJSON(r, &req, FieldTypeMessages)
	if err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	inc, _, err := h.service.Create(r.Context(), req.ToInput(typeErrors))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, h.service.View(inc))
}

// Patch handles PATCH /incidents/{id}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req PatchIncidentRequest
	typeErrors, err := httputil.DecodeJSON(r, &req, FieldTypeMessages)
	if err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	inc, _, err := h.service.Patch(r.Context(), chi.URLParam(r, "id"), req.ToInput(typeErrors))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.Success(w, http.StatusOK, h.service.View(inc))
}

// Reopen handles POST /incidents/{id}/reopen.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	inc, _, err := h.service.Reopen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.Success(w, http.StatusOK, h.service.View(inc))
}

// Delete handles DELETE /incidents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrors)
		return
	}

	httputil.NoContent(w)
}
