package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
	"github.com/jypsi/cabs/internal/repository/postgres"
)

// BookingService handles the booking lifecycle: intake, fare stamping,
// confirm/decline, vehicle assignment and fare overrides.
type BookingService struct {
	db            *sql.DB
	bookings      repository.BookingRepository
	payments      repository.PaymentRepository
	vehicles      repository.VehicleRepository
	fare          *FareService
	reconciler    *Reconciler
	notifications *NotificationService
	cfg           config.BookingConfig
	logger        *zap.Logger
}

// NewBookingService creates a new BookingService. db may be nil, in which
// case mutations run directly against the injected repositories instead of a
// transaction scope.
func NewBookingService(
	db *sql.DB,
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	vehicles repository.VehicleRepository,
	fare *FareService,
	reconciler *Reconciler,
	notifications *NotificationService,
	cfg config.BookingConfig,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		db:            db,
		bookings:      bookings,
		payments:      payments,
		vehicles:      vehicles,
		fare:          fare,
		reconciler:    reconciler,
		notifications: notifications,
		cfg:           cfg,
		logger:        logger,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	Source          string
	Destination     string
	TravelAt        time.Time
	VehicleCategory string
	Type            domain.BookingType
	Passengers      int
	PickupPoint     string
	ExtraInfo       string
	CustomerName    string
	CustomerMobile  string
	CustomerEmail   string
}

// Create validates the request, computes the fare and persists the booking
// in REQUEST state. The fare lookup happens before any row is written, so a
// missing rate aborts the creation entirely.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.Source == "" || req.Destination == "" {
		return nil, ErrInvalidRoute
	}
	if req.CustomerMobile == "" && req.CustomerEmail == "" {
		return nil, ErrContactRequired
	}
	if req.Type == "" {
		req.Type = domain.BookingTypeOneWay
	}

	now := time.Now()
	quote, err := s.fare.Quote(ctx, QuoteRequest{
		Source:          req.Source,
		Destination:     req.Destination,
		VehicleCategory: req.VehicleCategory,
		Type:            req.Type,
		At:              now,
	})
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Source:          req.Source,
		Destination:     req.Destination,
		TravelAt:        req.TravelAt,
		VehicleCategory: req.VehicleCategory,
		Type:            req.Type,
		Passengers:      req.Passengers,
		PickupPoint:     req.PickupPoint,
		ExtraInfo:       req.ExtraInfo,
		CustomerName:    req.CustomerName,
		CustomerMobile:  req.CustomerMobile,
		CustomerEmail:   req.CustomerEmail,
		Status:          domain.BookingStatusRequest,
		TotalFare:       quote.Fare.Total,
		Fare:            quote.Fare,
		Distance:        quote.Distance,
		PaymentSummary: domain.PaymentSummary{
			PaymentDone:   decimal.Zero,
			Expenses:      decimal.Zero,
			PaymentDue:    quote.Fare.Total,
			PaymentStatus: domain.SettlementNotPaid,
			Revenue:       decimal.Zero,
		},
		CreatedAt: now,
	}
	booking.PNR = domain.NewPNR(s.cfg.PNRPrefix, booking)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.notifications.BookingReceived(ctx, booking)

	s.logger.Info("booking created",
		zap.String("pnr", booking.PNR),
		zap.String("route", booking.Source+" -> "+booking.Destination),
		zap.Int64("total_fare", booking.TotalFare),
	)

	return booking, nil
}

// Get retrieves a booking by PNR.
func (s *BookingService) Get(ctx context.Context, pnr string) (*domain.Booking, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}
	return s.bookings.GetByPNR(ctx, pnr)
}

// List retrieves all bookings, newest first.
func (s *BookingService) List(ctx context.Context) ([]*domain.Booking, error) {
	return s.bookings.GetAll(ctx)
}

// Confirm transitions a booking to CONFIRMED and notifies the customer.
func (s *BookingService) Confirm(ctx context.Context, pnr string) (*domain.Booking, error) {
	return s.transition(ctx, pnr, domain.BookingStatusConfirmed)
}

// Decline transitions a booking to DECLINED and notifies the customer.
func (s *BookingService) Decline(ctx context.Context, pnr string) (*domain.Booking, error) {
	return s.transition(ctx, pnr, domain.BookingStatusDeclined)
}

func (s *BookingService) transition(ctx context.Context, pnr string, status domain.BookingStatus) (*domain.Booking, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}

	if err := s.bookings.UpdateStatus(ctx, pnr, status); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.BookingStatusConfirmed:
		s.notifications.BookingConfirmed(ctx, booking)
	case domain.BookingStatusDeclined:
		s.notifications.BookingDeclined(ctx, booking)
	}

	return booking, nil
}

// AssignVehicle sets the vehicle for a booking. When the vehicle has a linked
// driver and the booking has none, the driver comes along.
func (s *BookingService) AssignVehicle(ctx context.Context, pnr, vehicleID string) (*domain.Booking, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}

	booking.VehicleID = vehicle.ID
	if booking.DriverID == "" && vehicle.DriverID != "" {
		booking.DriverID = vehicle.DriverID
	}

	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// FareOverrideRequest adjusts the markup/discount of a stored fare breakdown.
type FareOverrideRequest struct {
	PNR      string
	Markup   int64
	Discount int64
}

// ApplyFareOverride re-totals the persisted breakdown with the new markup and
// discount, then reconciles: the amount due changes with the total. The quote
// itself is never recomputed.
func (s *BookingService) ApplyFareOverride(ctx context.Context, req FareOverrideRequest) (*domain.Booking, error) {
	if req.PNR == "" {
		return nil, ErrInvalidPNR
	}

	var booking *domain.Booking
	err := s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		var err error
		booking, err = bookings.GetByPNR(ctx, req.PNR)
		if err != nil {
			return err
		}

		booking.Fare.Markup = req.Markup
		booking.Fare.Discount = req.Discount
		booking.Fare.Retotal()
		booking.TotalFare = booking.Fare.Total

		if err := bookings.Update(ctx, booking); err != nil {
			return err
		}

		summary, err := s.reconciler.Apply(ctx, bookings, payments, req.PNR)
		if err != nil {
			return err
		}
		booking.PaymentSummary = *summary
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// withTx runs fn against transaction-scoped repositories and commits. With a
// nil database handle the injected repositories are used as-is.
func (s *BookingService) withTx(ctx context.Context, fn func(repository.BookingRepository, repository.PaymentRepository) error) error {
	if s.db == nil {
		return fn(s.bookings, s.payments)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(postgres.NewBookingRepositoryWithTx(tx), postgres.NewPaymentRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
