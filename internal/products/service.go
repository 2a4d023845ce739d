package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
)

// Service exposes read-only catalog operations. Product lifecycle management
// lives in the factory's catalog tooling, not here.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog read service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	return s.repo.List(ctx, filters)
}
