package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// stubRateRepo serves a single rate and category.
type stubRateRepo struct {
	rate     *domain.Rate
	category *domain.VehicleCategory

	getByCodeCalls int
}

func (s *stubRateRepo) Create(ctx context.Context, rate *domain.Rate) error { return nil }

func (s *stubRateRepo) GetByCode(ctx context.Context, code, vehicleCategory string) (*domain.Rate, error) {
	s.getByCodeCalls++
	if s.rate != nil && s.rate.Code == code && s.rate.VehicleCategory == vehicleCategory {
		return s.rate, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubRateRepo) GetAll(ctx context.Context) ([]*domain.Rate, error) { return nil, nil }

func (s *stubRateRepo) CreateCategory(ctx context.Context, category *domain.VehicleCategory) error {
	return nil
}

func (s *stubRateRepo) GetCategory(ctx context.Context, name string) (*domain.VehicleCategory, error) {
	if s.category != nil && s.category.Name == name {
		return s.category, nil
	}
	return nil, repository.ErrNotFound
}

// stubRateCache is an in-memory RateCache.
type stubRateCache struct {
	rates map[string]*domain.Rate

	hits int
	sets int
}

func newStubRateCache() *stubRateCache {
	return &stubRateCache{rates: make(map[string]*domain.Rate)}
}

func (c *stubRateCache) GetRate(ctx context.Context, code, category string) (*domain.Rate, error) {
	rate, ok := c.rates[code+"/"+category]
	if !ok {
		return nil, nil
	}
	c.hits++
	return rate, nil
}

func (c *stubRateCache) SetRate(ctx context.Context, rate *domain.Rate) error {
	c.sets++
	c.rates[rate.Code+"/"+rate.VehicleCategory] = rate
	return nil
}

func (c *stubRateCache) InvalidateRate(ctx context.Context, code, category string) error {
	delete(c.rates, code+"/"+category)
	return nil
}

func fixedRate() *domain.Rate {
	r := &domain.Rate{
		Source:             "Guwahati",
		Destination:        "Shillong",
		VehicleCategory:    "sedan",
		OnewayPrice:        1000,
		OnewayDistance:     100,
		OnewayDriverCharge: 300,
	}
	r.ApplyDefaults()
	return r
}

func taxedConfig() config.FareConfig {
	return config.FareConfig{
		Taxes: []config.Tax{
			{Name: "SGST", Rate: 0.025},
			{Name: "CGST", Rate: 0.025},
		},
		TaxEffectiveFrom: time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestQuote_AppliesTaxesOnBasePrice(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan", TariffPerKM: 12}}
	svc := NewFareService(repo, nil, taxedConfig(), zap.NewNop())

	quote, err := svc.Quote(context.Background(), QuoteRequest{
		Source:          "Guwahati",
		Destination:     "Shillong",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeOneWay,
		At:              time.Date(2019, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), quote.Fare.Price)
	require.Len(t, quote.Fare.Taxes.Lines, 2)
	assert.Equal(t, int64(25), quote.Fare.Taxes.Lines[0].Amount)
	assert.Equal(t, int64(50), quote.Fare.Taxes.Total)
	assert.Equal(t, int64(1050), quote.Fare.Total)
	assert.Equal(t, int64(100), quote.Distance)
}

func TestQuote_BeforeTaxCutoff_NoTaxes(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan"}}
	svc := NewFareService(repo, nil, taxedConfig(), zap.NewNop())

	quote, err := svc.Quote(context.Background(), QuoteRequest{
		Source:          "Guwahati",
		Destination:     "Shillong",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeOneWay,
		At:              time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Empty(t, quote.Fare.Taxes.Lines)
	assert.Equal(t, int64(1000), quote.Fare.Total)
}

func TestQuote_RoundTripUsesDoubledColumns(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan"}}
	svc := NewFareService(repo, nil, taxedConfig(), zap.NewNop())

	quote, err := svc.Quote(context.Background(), QuoteRequest{
		Source:          "Guwahati",
		Destination:     "Shillong",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeRoundTrip,
		At:              time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), quote.Fare.Price)
	assert.Equal(t, int64(600), quote.Fare.DriverCharge)
	assert.Equal(t, int64(200), quote.Distance)
}

func TestQuote_RouteCanonicalization(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan"}}
	svc := NewFareService(repo, nil, config.FareConfig{}, zap.NewNop())

	// Mixed case and punctuation resolve to the same route code.
	_, err := svc.Quote(context.Background(), QuoteRequest{
		Source:          "  guwahati ",
		Destination:     "SHILLONG!",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeOneWay,
		At:              time.Now(),
	})
	require.NoError(t, err)
}

func TestQuote_UnknownRoute(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan"}}
	svc := NewFareService(repo, nil, config.FareConfig{}, zap.NewNop())

	_, err := svc.Quote(context.Background(), QuoteRequest{
		Source:          "Guwahati",
		Destination:     "Tawang",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeOneWay,
		At:              time.Now(),
	})
	assert.ErrorIs(t, err, ErrRateNotFound)
}

func TestQuote_CachesRateLookups(t *testing.T) {
	t.Parallel()

	repo := &stubRateRepo{rate: fixedRate(), category: &domain.VehicleCategory{Name: "sedan"}}
	cache := newStubRateCache()
	svc := NewFareService(repo, cache, config.FareConfig{}, zap.NewNop())

	req := QuoteRequest{
		Source:          "Guwahati",
		Destination:     "Shillong",
		VehicleCategory: "sedan",
		Type:            domain.BookingTypeOneWay,
		At:              time.Now(),
	}

	_, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.getByCodeCalls, "second lookup should come from cache")
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
}

func TestRouteCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "GUWAHATI:SHILLONG", domain.RouteCode("Guwahati", "Shillong"))
	assert.Equal(t, "NEW-DELHI:OLD-DELHI", domain.RouteCode(" new delhi ", "old/delhi"))
}
