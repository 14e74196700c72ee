package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/redis"
	"github.com/jypsi/cabs/internal/repository"
)

// RateService manages the rate card: route rates and vehicle categories.
type RateService struct {
	rates  repository.RateRepository
	cache  redis.RateCache
	logger *zap.Logger
}

// NewRateService creates a new RateService. cache may be nil.
func NewRateService(rates repository.RateRepository, cache redis.RateCache, logger *zap.Logger) *RateService {
	return &RateService{
		rates:  rates,
		cache:  cache,
		logger: logger,
	}
}

// CreateRateRequest contains the parameters for defining a route rate.
type CreateRateRequest struct {
	Source          string
	Destination     string
	VehicleCategory string

	OnewayPrice        int64
	OnewayDistance     int64
	OnewayDriverCharge int64

	RoundTripPrice        int64
	RoundTripDistance     int64
	RoundTripDriverCharge int64
}

// CreateRate defines the rate for a route and vehicle category. Unset
// round-trip columns default from the one-way values, and any cached rate for
// the route is dropped.
func (s *RateService) CreateRate(ctx context.Context, req CreateRateRequest) (*domain.Rate, error) {
	if req.Source == "" || req.Destination == "" {
		return nil, ErrInvalidRoute
	}
	if req.OnewayPrice <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.rates.GetCategory(ctx, req.VehicleCategory); err != nil {
		return nil, err
	}

	now := time.Now()
	rate := &domain.Rate{
		ID:                    uuid.New().String(),
		Source:                req.Source,
		Destination:           req.Destination,
		VehicleCategory:       req.VehicleCategory,
		OnewayPrice:           req.OnewayPrice,
		OnewayDistance:        req.OnewayDistance,
		OnewayDriverCharge:    req.OnewayDriverCharge,
		RoundTripPrice:        req.RoundTripPrice,
		RoundTripDistance:     req.RoundTripDistance,
		RoundTripDriverCharge: req.RoundTripDriverCharge,
		CreatedAt:             now,
	}
	rate.ApplyDefaults()

	if err := s.rates.Create(ctx, rate); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRate(ctx, rate.Code, rate.VehicleCategory); err != nil {
			s.logger.Warn("rate cache invalidation failed",
				zap.String("code", rate.Code), zap.Error(err))
		}
	}

	s.logger.Info("rate created",
		zap.String("code", rate.Code),
		zap.String("vehicle_category", rate.VehicleCategory),
		zap.Int64("oneway_price", rate.OnewayPrice),
	)

	return rate, nil
}

// ListRates retrieves the full rate card.
func (s *RateService) ListRates(ctx context.Context) ([]*domain.Rate, error) {
	return s.rates.GetAll(ctx)
}

// CreateCategoryRequest contains the parameters for defining a vehicle
// category.
type CreateCategoryRequest struct {
	Name             string
	Description      string
	TariffPerKM      int64
	TariffAfterHours int64
}

// CreateCategory defines a vehicle category.
func (s *RateService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*domain.VehicleCategory, error) {
	if req.Name == "" {
		return nil, ErrInvalidCategory
	}

	category := &domain.VehicleCategory{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Description:      req.Description,
		TariffPerKM:      req.TariffPerKM,
		TariffAfterHours: req.TariffAfterHours,
		CreatedAt:        time.Now(),
	}
	if err := s.rates.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}
