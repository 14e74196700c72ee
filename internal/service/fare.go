package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/redis"
	"github.com/jypsi/cabs/internal/repository"
)

// FareService derives fare breakdowns from the rate table and the configured
// tax schedule. It runs exactly once per booking, at creation; later saves
// reuse the persisted breakdown.
type FareService struct {
	rates  repository.RateRepository
	cache  redis.RateCache
	cfg    config.FareConfig
	logger *zap.Logger
}

// NewFareService creates a new FareService. cache may be nil.
func NewFareService(rates repository.RateRepository, cache redis.RateCache, cfg config.FareConfig, logger *zap.Logger) *FareService {
	return &FareService{
		rates:  rates,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// QuoteRequest contains the parameters for computing a fare.
type QuoteRequest struct {
	Source          string
	Destination     string
	VehicleCategory string
	Type            domain.BookingType
	At              time.Time
}

// Quote is a computed fare breakdown plus the route distance.
type Quote struct {
	Fare     domain.FareDetails
	Distance int64
}

// Quote looks up the rate for the canonicalized route and derives the fare
// breakdown. Returns ErrRateNotFound when no rate matches.
func (s *FareService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.Source == "" || req.Destination == "" {
		return nil, ErrInvalidRoute
	}

	code := domain.RouteCode(req.Source, req.Destination)

	rate, err := s.lookupRate(ctx, code, req.VehicleCategory)
	if err != nil {
		return nil, err
	}

	category, err := s.rates.GetCategory(ctx, req.VehicleCategory)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}

	price, distance, driverCharge := rate.Price(req.Type)

	fare := domain.FareDetails{
		TariffPerKM:      category.TariffPerKM,
		TariffAfterHours: category.TariffAfterHours,
		Price:            price,
		DriverCharge:     driverCharge,
		Taxes:            s.taxes(price, req.At),
	}
	fare.Retotal()

	return &Quote{Fare: fare, Distance: distance}, nil
}

// lookupRate checks the Redis cache before the repository; cache failures
// are logged and ignored.
func (s *FareService) lookupRate(ctx context.Context, code, category string) (*domain.Rate, error) {
	if s.cache != nil {
		rate, err := s.cache.GetRate(ctx, code, category)
		if err != nil {
			s.logger.Warn("rate cache lookup failed", zap.String("code", code), zap.Error(err))
		} else if rate != nil {
			return rate, nil
		}
	}

	rate, err := s.rates.GetByCode(ctx, code, category)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRate(ctx, rate); err != nil {
			s.logger.Warn("rate cache store failed", zap.String("code", code), zap.Error(err))
		}
	}

	return rate, nil
}

// taxes applies the configured tax table to the base price. Bookings created
// before the tax-effective cutoff carry no tax block.
func (s *FareService) taxes(price int64, at time.Time) domain.TaxBreakdown {
	if at.Before(s.cfg.TaxEffectiveFrom) {
		return domain.TaxBreakdown{}
	}

	var breakdown domain.TaxBreakdown
	for _, tax := range s.cfg.Taxes {
		amount := int64(math.Round(tax.Rate * float64(price)))
		breakdown.Lines = append(breakdown.Lines, domain.TaxLine{
			Name:   tax.Name,
			Rate:   tax.Rate,
			Amount: amount,
		})
		breakdown.Total += amount
	}
	return breakdown
}
