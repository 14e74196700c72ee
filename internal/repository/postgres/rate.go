package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// RateRepository is a PostgreSQL implementation of repository.RateRepository.
type RateRepository struct {
	q Querier
}

// NewRateRepository creates a new PostgreSQL rate repository.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{q: db}
}

// NewRateRepositoryWithTx creates a rate repository using a transaction.
func NewRateRepositoryWithTx(tx *sql.Tx) *RateRepository {
	return &RateRepository{q: tx}
}

const rateColumns = `
	id, source, destination, code, vehicle_category,
	oneway_price, oneway_distance, oneway_driver_charge,
	roundtrip_price, roundtrip_distance, roundtrip_driver_charge,
	created_at, updated_at
`

// Create persists a new rate.
func (r *RateRepository) Create(ctx context.Context, rate *domain.Rate) error {
	query := `
		INSERT INTO rates (` + rateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
	`

	_, err := r.q.ExecContext(ctx, query,
		rate.ID,
		rate.Source,
		rate.Destination,
		rate.Code,
		rate.VehicleCategory,
		rate.OnewayPrice,
		rate.OnewayDistance,
		rate.OnewayDriverCharge,
		rate.RoundTripPrice,
		rate.RoundTripDistance,
		rate.RoundTripDriverCharge,
	)

	return err
}

// GetByCode retrieves the rate for a route code and vehicle category.
func (r *RateRepository) GetByCode(ctx context.Context, code, vehicleCategory string) (*domain.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates WHERE code = $1 AND vehicle_category = $2`

	rate, err := scanRate(r.q.QueryRowContext(ctx, query, code, vehicleCategory))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return rate, nil
}

// GetAll retrieves all rates.
func (r *RateRepository) GetAll(ctx context.Context) ([]*domain.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates ORDER BY code, vehicle_category`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []*domain.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}

	return rates, rows.Err()
}

// CreateCategory persists a new vehicle category.
func (r *RateRepository) CreateCategory(ctx context.Context, category *domain.VehicleCategory) error {
	query := `
		INSERT INTO vehicle_categories (id, name, description, tariff_per_km, tariff_after_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`

	_, err := r.q.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.TariffPerKM,
		category.TariffAfterHours,
	)

	return err
}

// GetCategory retrieves a vehicle category by name.
func (r *RateRepository) GetCategory(ctx context.Context, name string) (*domain.VehicleCategory, error) {
	query := `
		SELECT id, name, description, tariff_per_km, tariff_after_hours, created_at, updated_at
		FROM vehicle_categories WHERE name = $1
	`

	var category domain.VehicleCategory
	err := r.q.QueryRowContext(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.TariffPerKM,
		&category.TariffAfterHours,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &category, nil
}

func scanRate(row rowScanner) (*domain.Rate, error) {
	var rate domain.Rate
	err := row.Scan(
		&rate.ID,
		&rate.Source,
		&rate.Destination,
		&rate.Code,
		&rate.VehicleCategory,
		&rate.OnewayPrice,
		&rate.OnewayDistance,
		&rate.OnewayDriverCharge,
		&rate.RoundTripPrice,
		&rate.RoundTripDistance,
		&rate.RoundTripDriverCharge,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
