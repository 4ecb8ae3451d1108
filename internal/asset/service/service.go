package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"pesa/internal/asset/models"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/requestcontext"
)

// Store is the persistence port for resources.
type Store interface {
	Create(ctx context.Context, resource *models.Resource) error
	FindByID(ctx context.Context, id domain.ResourceID) (*models.Resource, error)
	AdjustQuantity(ctx context.Context, id domain.ResourceID, delta int64) error
	List(ctx context.Context) ([]models.Resource, error)
}

// Service manages the checkout-able inventory. Stock movement driven by the
// request workflow goes through the workflow service, which uses the same
// store; this service covers catalog management and reads.
type Service struct {
	resources Store
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(resources Store, opts ...Option) *Service {
	s := &Service{resources: resources}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries external resource data.
type CreateInput struct {
	Name     string
	Quantity int64
}

// Create registers a new resource type with initial stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Resource, error) {
	resource, err := models.NewResource(
		domain.ResourceID(uuid.New()), in.Name, in.Quantity, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "resource already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resource")
	}
	return resource, nil
}

// Get returns a resource by ID.
func (s *Service) Get(ctx context.Context, id domain.ResourceID) (*models.Resource, error) {
	resource, err := s.resources.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resource store failure")
	}
	return resource, nil
}

// Restock adds units to a resource's available stock.
func (s *Service) Restock(ctx context.Context, id domain.ResourceID, units int64) (*models.Resource, error) {
	if units <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "units must be positive")
	}
	if err := s.resources.AdjustQuantity(ctx, id, units); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restock resource")
	}
	return s.Get(ctx, id)
}

// List returns the catalog with current availability.
func (s *Service) List(ctx context.Context) ([]models.Resource, error) {
	resources, err := s.resources.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resources")
	}
	return resources, nil
}
