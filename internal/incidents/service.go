// Package incidents implements the incident lifecycle: creation, patching with
// status transitions, reopening, deletion and the query pipeline.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// Service implements incident business logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and SLA evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new incident service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput holds data for creating an incident.
type CreateInput struct {
	Title       string
	Description string
	Severity    domain.Severity
	Tags        []string
	ServiceID   *string

	// TypeErrors holds fields whose JSON value had the wrong type. They are
	// reported together with every other validation failure.
	TypeErrors domain.FieldErrors
}

// PatchInput holds a partial update. Nil pointers and unset Nullables are left unchanged.
type PatchInput struct {
	Title       *string
	Description *string
	Severity    *domain.Severity
	Tags        domain.Nullable[[]string]
	CommanderID domain.Nullable[string]
	ServiceID   domain.Nullable[string]
	Status      *domain.IncidentStatus

	// TypeErrors holds fields whose JSON value had the wrong type.
	TypeErrors domain.FieldErrors
}

// View is an incident together with the derived state a client needs to decide
// which actions to offer.
type View struct {
	*domain.Incident
	SLA                domain.SLA              `json:"sla"`
	AllowedTransitions []domain.IncidentStatus `json:"allowedTransitions"`
	CanReopen          bool                    `json:"canReopen"`
}

// Validation rules, expressed as validator tags.
var (
	ruleTitle       = "min=4"
	ruleDescription = "required"
	ruleSeverity    = "oneof=" + joinSeverities(domain.Severities())
	ruleStatus      = "oneof=" + strings.ReplaceAll(joinStatuses(domain.IncidentStatuses()), ", ", " ")
)

func joinSeverities(severities []domain.Severity) string {
	parts := make([]string, 0, len(severities))
	for _, s := range severities {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, " ")
}

// Create validates input and stores a new triggered incident.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Incident, *domain.ActivityEntry, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	fields := domain.FieldErrors{}
	s.check(fields, "title", title, ruleTitle, msgTitle)
	s.check(fields, "description", description, ruleDescription, msgDescription)
	s.check(fields, "severity", string(input.Severity), ruleSeverity, msgSeverity)

	serviceID := input.ServiceID
	if serviceID != nil && *serviceID == "" {
		serviceID = nil
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	inc, entry, err := s.repo.CreateIncident(ctx, func(refs References) (*domain.Incident, *domain.ActivityEntry, error) {
		if serviceID != nil && !refs.ServiceExists(*serviceID) {
			fields["serviceId"] = msgService
		}
		maps.Copy(fields, input.TypeErrors)
		if len(fields) > 0 {
			return nil, nil, domain.NewValidationError("Invalid incident", fields)
		}

		inc := &domain.Incident{
			ServiceID:   serviceID,
			Title:       title,
			Description: description,
			Status:      domain.IncidentStatusTriggered,
			Severity:    input.Severity,
			Tags:        tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return inc, &domain.ActivityEntry{
			Type:       domain.ActivityCreate,
			EntityType: domain.EntityIncident,
			Message:    fmt.Sprintf("Incident created: %s", inc.Title),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			recordValidationFailure("create")
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create incident: %w", err)
	}

	recordCreated(inc.Severity)
	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", inc.ID,
		"severity", inc.Severity,
	)

	return inc, entry, nil
}

// Get retrieves an incident by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetIncident(ctx, id)
}

// List returns the incidents matching filter in the requested order, as views
// evaluated at a single instant.
func (s *Service) List(ctx context.Context, filter Filter, order SortOrder) ([]View, error) {
	all, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	now := s.now()
	matched := Query(all, filter, order, now)

	views := make([]View, 0, len(matched))
	for _, inc := range matched {
		views = append(views, viewAt(inc, now))
	}
	return views, nil
}

// View returns the incident with its SLA and allowed actions evaluated now.
func (s *Service) View(inc *domain.Incident) View {
	return viewAt(inc, s.now())
}

func viewAt(inc *domain.Incident, now time.Time) View {
	return View{
		Incident:           inc,
		SLA:                domain.ComputeSLA(inc, now),
		AllowedTransitions: inc.Status.NextStatuses(),
		CanReopen:          inc.Status.IsResolved(),
	}
}

// Patch applies a partial update. All field failures are collected and
// reported together; any failure rejects the whole patch.
func (s *Service) Patch(ctx context.Context, id string, input PatchInput) (*domain.Incident, *domain.ActivityEntry, error) {
	fields := domain.FieldErrors{}

	if input.Title != nil {
		s.check(fields, "title", strings.TrimSpace(*input.Title), ruleTitle, msgTitle)
	}
	if input.Description != nil {
		s.check(fields, "description", strings.TrimSpace(*input.Description), ruleDescription, msgDescription)
	}
	if input.Severity != nil {
		s.check(fields, "severity", string(*input.Severity), ruleSeverity, msgSeverity)
	}
	if input.Tags.Set && input.Tags.Value == nil {
		fields["tags"] = msgTags
	}
	if input.Status != nil {
		s.check(fields, "status", string(*input.Status), ruleStatus, msgStatus)
	}
	now := s.now()
	var transition *[2]domain.IncidentStatus

	inc, entry, err := s.repo.UpdateIncident(ctx, id, func(inc *domain.Incident, refs References) (*domain.ActivityEntry, error) {
		if input.CommanderID.Set && input.CommanderID.Value != nil && !refs.UserExists(*input.CommanderID.Value) {
			fields["commanderId"] = msgCommander
		}
		if input.ServiceID.Set && input.ServiceID.Value != nil && !refs.ServiceExists(*input.ServiceID.Value) {
			fields["serviceId"] = msgService
		}
		maps.Copy(fields, input.TypeErrors)
		if input.Status != nil && fields["status"] == "" && *input.Status != inc.Status {
			if !domain.CanTransition(inc.Status, *input.Status) {
				fields["status"] = fmt.Sprintf("Invalid transition: %s -> %s", inc.Status, *input.Status)
			}
		}
		if len(fields) > 0 {
			return nil, domain.NewValidationError("Invalid incident patch", fields)
		}

		if input.Title != nil {
			inc.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			inc.Description = strings.TrimSpace(*input.Description)
		}
		if input.Severity != nil {
			inc.Severity = *input.Severity
		}
		if input.Tags.Set {
			inc.Tags = append([]string{}, (*input.Tags.Value)...)
		}
		if input.CommanderID.Set {
			inc.CommanderID = input.CommanderID.Value
		}
		if input.ServiceID.Set {
			inc.ServiceID = input.ServiceID.Value
		}
		if input.Status != nil && *input.Status != inc.Status {
			transition = &[2]domain.IncidentStatus{inc.Status, *input.Status}
			inc.ApplyStatus(*input.Status, now)
		}
		inc.UpdatedAt = now

		return &domain.ActivityEntry{
			Type:       domain.ActivityUpdate,
			EntityType: domain.EntityIncident,
			EntityID:   inc.ID,
			Message:    fmt.Sprintf("Incident updated: %s", inc.Title),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			recordValidationFailure("patch")
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("patch incident: %w", err)
	}

	if transition != nil {
		recordTransition(transition[0], transition[1])
		ctxlog.FromContext(ctx).Info("incident status changed",
			"incident_id", inc.ID,
			"from", transition[0],
			"to", transition[1],
		)
	}

	return inc, entry, nil
}

// Reopen moves a resolved incident back to investigating.
// It is not a transition-table edge and fails for any other status.
func (s *Service) Reopen(ctx context.Context, id string) (*domain.Incident, *domain.ActivityEntry, error) {
	now := s.now()

	inc, entry, err := s.repo.UpdateIncident(ctx, id, func(inc *domain.Incident, _ References) (*domain.ActivityEntry, error) {
		if !inc.Status.IsResolved() {
			return nil, domain.NewValidationError("Cannot reopen unless resolved", domain.FieldErrors{
				"status": msgReopen,
			})
		}

		inc.Status = domain.IncidentStatusInvestigating
		inc.ResolvedAt = nil
		inc.UpdatedAt = now

		return &domain.ActivityEntry{
			Type:       domain.ActivityReopen,
			EntityType: domain.EntityIncident,
			EntityID:   inc.ID,
			Message:    fmt.Sprintf("Incident reopened: %s", inc.Title),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			recordValidationFailure("reopen")
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("reopen incident: %w", err)
	}

	recordReopen()
	ctxlog.FromContext(ctx).Info("incident reopened", "incident_id", inc.ID)

	return inc, entry, nil
}

// Delete removes an incident.
func (s *Service) Delete(ctx context.Context, id string) (*domain.ActivityEntry, error) {
	now := s.now()

	_, entry, err := s.repo.DeleteIncident(ctx, id, func(inc *domain.Incident, _ References) (*domain.ActivityEntry, error) {
		return &domain.ActivityEntry{
			Type:       domain.ActivityDelete,
			EntityType: domain.EntityIncident,
			EntityID:   inc.ID,
			Message:    fmt.Sprintf("Incident deleted: %s", inc.Title),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete incident: %w", err)
	}

	ctxlog.FromContext(ctx).Info("incident deleted", "incident_id", id)
	return entry, nil
}

// check validates value against rule and records msg under field on failure.
func (s *Service) check(fields domain.FieldErrors, field, value, rule, msg string) {
	if err := s.validator.Var(value, rule); err != nil {
		fields[field] = msg
	}
}
