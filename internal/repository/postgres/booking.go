package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	pnr, source, destination, travel_at, vehicle_category, booking_type,
	passengers, pickup_point, extra_info,
	customer_name, customer_mobile, customer_email,
	status, total_fare, fare_details, distance,
	payment_done, expenses, payment_due, payment_status, revenue, last_payment_date,
	vehicle_id, driver_id, driver_paid,
	created_at, updated_at
`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	fare, err := json.Marshal(booking.Fare)
	if err != nil {
		return fmt.Errorf("marshal fare details: %w", err)
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, now(), now())
	`

	_, err = r.q.ExecContext(ctx, query,
		booking.PNR,
		booking.Source,
		booking.Destination,
		booking.TravelAt,
		booking.VehicleCategory,
		booking.Type,
		booking.Passengers,
		booking.PickupPoint,
		booking.ExtraInfo,
		booking.CustomerName,
		booking.CustomerMobile,
		booking.CustomerEmail,
		booking.Status,
		booking.TotalFare,
		fare,
		booking.Distance,
		booking.PaymentDone,
		booking.Expenses,
		booking.PaymentDue,
		booking.PaymentStatus,
		booking.Revenue,
		nullTime(booking.LastPaymentDate),
		nullString(booking.VehicleID),
		nullString(booking.DriverID),
		booking.DriverPaid,
	)

	return err
}

// GetByPNR retrieves a booking by its PNR.
func (r *BookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE pnr = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, pnr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// GetAll retrieves all bookings, newest first.
func (r *BookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// Update persists changes to a booking's mutable fields.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	fare, err := json.Marshal(booking.Fare)
	if err != nil {
		return fmt.Errorf("marshal fare details: %w", err)
	}

	query := `
		UPDATE bookings SET
			status = $1, total_fare = $2, fare_details = $3,
			vehicle_id = $4, driver_id = $5, driver_paid = $6,
			pickup_point = $7, extra_info = $8, updated_at = now()
		WHERE pnr = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		booking.Status,
		booking.TotalFare,
		fare,
		nullString(booking.VehicleID),
		nullString(booking.DriverID),
		booking.DriverPaid,
		booking.PickupPoint,
		booking.ExtraInfo,
		booking.PNR,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateStatus updates only the lifecycle status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, pnr string, status domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = now() WHERE pnr = $2`

	result, err := r.q.ExecContext(ctx, query, status, pnr)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdatePaymentSummary persists the reconciler's derived aggregates.
func (r *BookingRepository) UpdatePaymentSummary(ctx context.Context, pnr string, summary domain.PaymentSummary) error {
	query := `
		UPDATE bookings SET
			payment_done = $1, expenses = $2, payment_due = $3,
			payment_status = $4, revenue = $5, last_payment_date = $6,
			updated_at = now()
		WHERE pnr = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		summary.PaymentDone,
		summary.Expenses,
		summary.PaymentDue,
		summary.PaymentStatus,
		summary.Revenue,
		nullTime(summary.LastPaymentDate),
		pnr,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking     domain.Booking
		fare        []byte
		lastPayment sql.NullTime
		vehicleID   sql.NullString
		driverID    sql.NullString
	)

	err := row.Scan(
		&booking.PNR,
		&booking.Source,
		&booking.Destination,
		&booking.TravelAt,
		&booking.VehicleCategory,
		&booking.Type,
		&booking.Passengers,
		&booking.PickupPoint,
		&booking.ExtraInfo,
		&booking.CustomerName,
		&booking.CustomerMobile,
		&booking.CustomerEmail,
		&booking.Status,
		&booking.TotalFare,
		&fare,
		&booking.Distance,
		&booking.PaymentDone,
		&booking.Expenses,
		&booking.PaymentDue,
		&booking.PaymentStatus,
		&booking.Revenue,
		&lastPayment,
		&vehicleID,
		&driverID,
		&booking.DriverPaid,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fare, &booking.Fare); err != nil {
		return nil, fmt.Errorf("unmarshal fare details: %w", err)
	}
	if lastPayment.Valid {
		booking.LastPaymentDate = lastPayment.Time
	}
	booking.VehicleID = vehicleID.String
	booking.DriverID = driverID.String

	return &booking, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
