// Package catalog manages the services incidents can be attached to.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

var (
	ruleName   = "min=2"
	ruleTier   = "min=" + strconv.Itoa(domain.MinServiceTier) + ",max=" + strconv.Itoa(domain.MaxServiceTier)
	ruleStatus = "oneof=" + string(domain.ServiceStatusActive) + " " + string(domain.ServiceStatusDegraded)
)

// Service implements catalog business logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateServiceInput holds data for creating a service. Tier is a pointer so
// that a missing tier is rejected rather than defaulting to 0.
type CreateServiceInput struct {
	Name      string
	Tier      *int
	OwnerTeam string
	Status    domain.ServiceStatus

	// TypeErrors holds fields whose JSON value had the wrong type.
	TypeErrors domain.FieldErrors
}

// UpdateServiceInput holds a partial update. Nil fields are left unchanged.
type UpdateServiceInput struct {
	Name      *string
	Tier      *int
	OwnerTeam *string
	Status    *domain.ServiceStatus

	// TypeErrors holds fields whose JSON value had the wrong type.
	TypeErrors domain.FieldErrors
}

// CreateService validates input and stores a new service.
func (s *Service) CreateService(ctx context.Context, input CreateServiceInput) (*domain.Service, error) {
	name := strings.TrimSpace(input.Name)
	ownerTeam := strings.TrimSpace(input.OwnerTeam)

	fields := domain.FieldErrors{}
	s.check(fields, "name", name, ruleName, msgName)
	if input.Tier == nil {
		fields["tier"] = msgTier
	} else {
		s.check(fields, "tier", *input.Tier, ruleTier, msgTier)
	}
	s.check(fields, "ownerTeam", ownerTeam, ruleName, msgOwnerTeam)
	s.check(fields, "status", string(input.Status), ruleStatus, msgStatus)
	maps.Copy(fields, input.TypeErrors)
	if len(fields) > 0 {
		return nil, domain.NewValidationError("Invalid service", fields)
	}

	now := s.now()
	svc := &domain.Service{
		Name:      name,
		Tier:      *input.Tier,
		OwnerTeam: ownerTeam,
		Status:    input.Status,
		CreatedAt: now,
	}
	entry := &domain.ActivityEntry{
		Type:       domain.ActivityCreate,
		EntityType: domain.EntityService,
		Message:    fmt.Sprintf("Service created: %s", svc.Name),
		CreatedAt:  now,
	}

	if err := s.repo.CreateService(ctx, svc, entry); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	ctxlog.FromContext(ctx).Info("service created", "service_id", svc.ID, "name", svc.Name)
	return svc, nil
}

// GetService retrieves a service by ID.
func (s *Service) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return s.repo.GetService(ctx, id)
}

// ListServices returns all services.
func (s *Service) ListServices(ctx context.Context) ([]*domain.Service, error) {
	return s.repo.ListServices(ctx)
}

// ServiceExists reports whether a service with the given ID exists.
func (s *Service) ServiceExists(ctx context.Context, id string) (bool, error) {
	return s.repo.ServiceExists(ctx, id)
}

// UpdateService applies a partial update. Unknown ids are reported before
// field validation.
func (s *Service) UpdateService(ctx context.Context, id string, input UpdateServiceInput) (*domain.Service, error) {
	fields := domain.FieldErrors{}
	if input.Name != nil {
		s.check(fields, "name", strings.TrimSpace(*input.Name), ruleName, msgName)
	}
	if input.Tier != nil {
		s.check(fields, "tier", *input.Tier, ruleTier, msgTier)
	}
	if input.OwnerTeam != nil {
		s.check(fields, "ownerTeam", strings.TrimSpace(*input.OwnerTeam), ruleName, msgOwnerTeam)
	}
	if input.Status != nil {
		s.check(fields, "status", string(*input.Status), ruleStatus, msgStatus)
	}
	maps.Copy(fields, input.TypeErrors)

	now := s.now()
	svc, _, err := s.repo.UpdateService(ctx, id, func(svc *domain.Service) (*domain.ActivityEntry, error) {
		if len(fields) > 0 {
			return nil, domain.NewValidationError("Invalid service patch", fields)
		}

		if input.Name != nil {
			svc.Name = strings.TrimSpace(*input.Name)
		}
		if input.Tier != nil {
			svc.Tier = *input.Tier
		}
		if input.OwnerTeam != nil {
			svc.OwnerTeam = strings.TrimSpace(*input.OwnerTeam)
		}
		if input.Status != nil {
			svc.Status = *input.Status
		}

		return &domain.ActivityEntry{
			Type:       domain.ActivityUpdate,
			EntityType: domain.EntityService,
			EntityID:   svc.ID,
			Message:    fmt.Sprintf("Service updated: %s", svc.Name),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return nil, err
		}
		return nil, fmt.Errorf("update service: %w", err)
	}

	ctxlog.FromContext(ctx).Info("service updated", "service_id", svc.ID)
	return svc, nil
}

// DeleteService removes a service. Incidents keep their serviceId.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	now := s.now()

	_, _, err := s.repo.DeleteService(ctx, id, func(svc *domain.Service) (*domain.ActivityEntry, error) {
		return &domain.ActivityEntry{
			Type:       domain.ActivityDelete,
			EntityType: domain.EntityService,
			EntityID:   svc.ID,
			Message:    fmt.Sprintf("Service deleted: %s", svc.Name),
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}

	ctxlog.FromContext(ctx).Info("service deleted", "service_id", id)
	return nil
}

func (s *Service) check(fields domain.FieldErrors, field string, value any, rule, msg string) {
	if err := s.validator.Var(value, rule); err != nil {
		fields[field] = msg
	}
}
