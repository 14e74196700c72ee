package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// DriverService manages the driver and vehicle roster.
type DriverService struct {
	drivers  repository.DriverRepository
	vehicles repository.VehicleRepository
	logger   *zap.Logger
}

// NewDriverService creates a new DriverService.
func NewDriverService(drivers repository.DriverRepository, vehicles repository.VehicleRepository, logger *zap.Logger) *DriverService {
	return &DriverService{
		drivers:  drivers,
		vehicles: vehicles,
		logger:   logger,
	}
}

// CreateDriverRequest contains the parameters for registering a driver.
type CreateDriverRequest struct {
	Name   string
	Mobile string
}

// CreateDriver registers a driver.
func (s *DriverService) CreateDriver(ctx context.Context, req CreateDriverRequest) (*domain.Driver, error) {
	if req.Name == "" || req.Mobile == "" {
		return nil, ErrInvalidDriver
	}

	driver := &domain.Driver{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Mobile:    req.Mobile,
		CreatedAt: time.Now(),
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		return nil, err
	}

	s.logger.Info("driver registered", zap.String("driver_id", driver.ID), zap.String("name", driver.Name))
	return driver, nil
}

// GetDriver retrieves a driver by id.
func (s *DriverService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return s.drivers.GetByID(ctx, id)
}

// ListDrivers retrieves the driver roster.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.drivers.GetAll(ctx)
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	Name     string
	Number   string
	Category string
	DriverID string
}

// CreateVehicle registers a vehicle, optionally linked to a driver.
func (s *DriverService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	if req.Name == "" || req.Number == "" {
		return nil, ErrInvalidVehicle
	}
	if req.DriverID != "" {
		if _, err := s.drivers.GetByID(ctx, req.DriverID); err != nil {
			return nil, err
		}
	}

	vehicle := &domain.Vehicle{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Number:    req.Number,
		Category:  req.Category,
		DriverID:  req.DriverID,
		CreatedAt: time.Now(),
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered", zap.String("vehicle_id", vehicle.ID), zap.String("number", vehicle.Number))
	return vehicle, nil
}

// ListVehicles retrieves the vehicle roster.
func (s *DriverService) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicles.GetAll(ctx)
}
