package catalog

import (
	"context"
	"net/http"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/incidents"
	"github.com/bissquit/opsdesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// IncidentsReader lists incidents (used by the service incidents route).
type IncidentsReader interface {
	List(ctx context.Context, filter incidents.Filter, order incidents.SortOrder) ([]incidents.View, error)
}

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	incidents IncidentsReader
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service, incidentsReader IncidentsReader) *Handler {
	return &Handler{
		service:   service,
		incidents: incidentsReader,
	}
}

// RegisterRoutes registers read routes available to every known user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Get("/services/{id}", h.GetService)
	r.Get("/services/{id}/incidents", h.ListServiceIncidents)
}

// RegisterAdminRoutes registers routes that require the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/services", h.CreateService)
	r.Patch("/services/{id}", h.UpdateService)
	r.Delete("/services/{id}", h.DeleteService)
}

// CreateServiceRequest represents the request body for creating a service.
type CreateServiceRequest struct {
	Name      string               `json:"name"`
	Tier      *int                 `json:"tier"`
	OwnerTeam string               `json:"ownerTeam"`
	Status    domain.ServiceStatus `json:"status"`
}

// UpdateServiceRequest represents the request body for patching a service.
type UpdateServiceRequest struct {
	Name      *string               `json:"name"`
	Tier      *int                  `json:"tier"`
	OwnerTeam *string               `json:"ownerTeam"`
	Status    *domain.ServiceStatus `json:"status"`
}

// ToInput converts the request to service input.
func (r *CreateServiceRequest) ToInput(typeErrors domain.FieldErrors) CreateServiceInput {
	return CreateServiceInput{
		Name:       r.Name,
		Tier:       r.Tier,
		OwnerTeam:  r.OwnerTeam,
		Status:     r.Status,
		TypeErrors: typeErrors,
	}
}

// ToInput converts the request to service input.
func (r *UpdateServiceRequest) ToInput(typeErrors domain.FieldErrors) UpdateServiceInput {
	return UpdateServiceInput{
		Name:       r.Name,
		Tier:       r.Tier,
		OwnerTeam:  r.OwnerTeam,
		Status:     r.Status,
		TypeErrors: typeErrors,
	}
}

var serviceErrors = []httputil.ErrorMapping{
	{Error: ErrServiceNotFound, Status: http.StatusNotFound, Message: "Service not found"},
}

// ListServices handles GET /services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.Success(w, http.StatusOK, services)
}

// GetService handles GET /services/{id}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.Success(w, http.StatusOK, svc)
}

// ListServiceIncidents handles GET /services/{id}/incidents.
// Query parameters other than serviceId behave as on GET /incidents.
func (h *Handler) ListServiceIncidents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.service.ServiceExists(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}
	if !ok {
		httputil.HandleError(r.Context(), w, ErrServiceNotFound, serviceErrors)
		return
	}

	q := r.URL.Query()
	filter := incidents.Filter{
		Status:    domain.IncidentStatus(q.Get("status")),
		Severity:  domain.Severity(q.Get("severity")),
		ServiceID: id,
		Breached:  incidents.BreachFilter(q.Get("breached")),
		Q:         q.Get("q"),
	}

	views, err := h.incidents.List(r.Context(), filter, incidents.ParseSort(q.Get("sort")))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.Success(w, http.StatusOK, views)
}

// CreateService handles POST /services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	typeErrors, err := httputil.DecodeJSON(r, &req, FieldTypeMessages)
	if err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	svc, err := h.service.CreateService(r.Context(), req.ToInput(typeErrors))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.Success(w, http.StatusCreated, svc)
}

// UpdateService handles PATCH /services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	typeErrors, err := httputil.DecodeJSON(r, &req, FieldTypeMessages)
	if err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	svc, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "id"), req.ToInput(typeErrors))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.Success(w, http.StatusOK, svc)
}

// DeleteService handles DELETE /services/{id}.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrors)
		return
	}

	httputil.NoContent(w)
}
