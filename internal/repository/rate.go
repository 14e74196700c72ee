package repository

import (
	"context"

	"github.com/jypsi/cabs/internal/domain"
)

// RateRepository defines the persistence operations for rates and vehicle
// categories.
type RateRepository interface {
	// Create persists a new rate.
	Create(ctx context.Context, rate *domain.Rate) error

	// GetByCode retrieves the rate for a route code and vehicle category.
	GetByCode(ctx context.Context, code, vehicleCategory string) (*domain.Rate, error)

	// GetAll retrieves all rates.
	GetAll(ctx context.Context) ([]*domain.Rate, error)

	// CreateCategory persists a new vehicle category.
	CreateCategory(ctx context.Context, category *domain.VehicleCategory) error

	// GetCategory retrieves a vehicle category by name.
	GetCategory(ctx context.Context, name string) (*domain.VehicleCategory, error)
}
