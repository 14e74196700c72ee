package repository

import (
	"context"

	"github.com/jypsi/cabs/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByPNR retrieves a booking by its PNR.
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)

	// GetAll retrieves all bookings, newest first.
	GetAll(ctx context.Context) ([]*domain.Booking, error)

	// Update persists changes to a booking's mutable fields.
	Update(ctx context.Context, booking *domain.Booking) error

	// UpdateStatus updates only the lifecycle status.
	UpdateStatus(ctx context.Context, pnr string, status domain.BookingStatus) error

	// UpdatePaymentSummary persists the reconciler's derived aggregates.
	UpdatePaymentSummary(ctx context.Context, pnr string, summary domain.PaymentSummary) error
}
