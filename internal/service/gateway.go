package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/gateway"
	"github.com/jypsi/cabs/internal/repository"
	"github.com/jypsi/cabs/internal/repository/postgres"
)

// GatewayService drives online charge sessions: creating the pending payment,
// producing the provider redirect and absorbing asynchronous callbacks.
type GatewayService struct {
	db            *sql.DB
	payments      repository.PaymentRepository
	bookings      repository.BookingRepository
	provider      gateway.Provider
	reconciler    *Reconciler
	notifications *NotificationService
	cfg           config.BookingConfig
	logger        *zap.Logger
}

// NewGatewayService creates a new GatewayService. db may be nil for direct
// repository access.
func NewGatewayService(
	db *sql.DB,
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	provider gateway.Provider,
	reconciler *Reconciler,
	notifications *NotificationService,
	cfg config.BookingConfig,
	logger *zap.Logger,
) *GatewayService {
	return &GatewayService{
		db:            db,
		payments:      payments,
		bookings:      bookings,
		provider:      provider,
		reconciler:    reconciler,
		notifications: notifications,
		cfg:           cfg,
		logger:        logger,
	}
}

// Start begins an online charge for the booking's outstanding balance. An
// existing non-terminal gateway payment is reused so an abandoned checkout
// does not pile up WAITING rows.
func (s *GatewayService) Start(ctx context.Context, pnr string) (*gateway.RedirectPayload, *domain.Payment, error) {
	if pnr == "" {
		return nil, nil, ErrInvalidPNR
	}

	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, nil, err
	}
	if booking.PaymentDue <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	amount := decimal.NewFromInt(booking.PaymentDue)
	now := time.Now()

	var payment *domain.Payment
	err = s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		history, err := payments.ListByPayable(ctx, domain.PayableKindBooking, pnr)
		if err != nil {
			return err
		}
		for _, p := range history {
			if p.Mode == domain.PaymentModeGateway && !p.Status.Terminal() {
				payment = p
				break
			}
		}

		if payment == nil {
			payment = &domain.Payment{
				InvoiceID:   domain.NewInvoiceID(s.cfg.InvoicePrefix),
				PayableKind: domain.PayableKindBooking,
				PayableID:   pnr,
				Amount:      amount,
				Currency:    s.cfg.Currency,
				Type:        domain.PaymentTypeIncome,
				Mode:        domain.PaymentModeGateway,
				Status:      domain.PaymentStatusWaiting,
				Timestamp:   now,
				CreatedAt:   now,
			}
			payment.ApplyAccounting(now)
			if err := payments.Create(ctx, payment); err != nil {
				return err
			}
		}

		payment.Amount = amount
		payment.Status = domain.PaymentStatusStarted
		payment.Timestamp = now
		if err := payments.Update(ctx, payment); err != nil {
			return err
		}

		return bookings.UpdateStatus(ctx, pnr, domain.BookingStatusAttempt)
	})
	if err != nil {
		return nil, nil, err
	}

	payload, err := s.provider.Start(ctx, gateway.StartRequest{
		InvoiceID:      payment.InvoiceID,
		OrderRef:       pnr,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		CustomerName:   booking.CustomerName,
		CustomerMobile: booking.CustomerMobile,
		CustomerEmail:  booking.CustomerEmail,
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("gateway charge started",
		zap.String("pnr", pnr),
		zap.String("invoice_id", payment.InvoiceID),
		zap.String("amount", payment.Amount.String()),
		zap.String("provider", s.provider.Name()),
	)

	return payload, payment, nil
}

// HandleCallback absorbs an asynchronous provider callback. Malformed
// payloads and callbacks for unknown payments mutate nothing; a redelivered
// callback for a payment already in a terminal state is a no-op.
func (s *GatewayService) HandleCallback(ctx context.Context, payload string) (*domain.Booking, *domain.Payment, error) {
	result, err := s.provider.ParseCallback(ctx, payload)
	if err != nil {
		s.logger.Warn("gateway callback rejected", zap.Error(err))
		return nil, nil, err
	}

	var (
		booking   *domain.Booking
		payment   *domain.Payment
		redeliver bool
	)
	err = s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		var err error
		payment, err = payments.GetByInvoiceID(ctx, result.InvoiceID)
		if err != nil {
			return err
		}

		if payment.Status.Terminal() {
			redeliver = true
			booking, err = bookings.GetByPNR(ctx, payment.PayableID)
			return err
		}

		now := time.Now()
		payment.Status = result.Status
		payment.Timestamp = now
		if ref, ok := result.Raw["tracking_id"]; ok {
			payment.ReferenceID = ref
		}
		if details, err := json.Marshal(result.Raw); err == nil {
			payment.Details = string(details)
		}
		payment.ApplyAccounting(now)

		if err := payments.Update(ctx, payment); err != nil {
			return err
		}

		status := domain.BookingStatusRequest
		if result.Status == domain.PaymentStatusSuccess {
			status = domain.BookingStatusConfirmed
		}
		if err := bookings.UpdateStatus(ctx, payment.PayableID, status); err != nil {
			return err
		}

		summary, err := s.reconciler.Apply(ctx, bookings, payments, payment.PayableID)
		if err != nil {
			return err
		}

		booking, err = bookings.GetByPNR(ctx, payment.PayableID)
		if err != nil {
			return err
		}
		booking.PaymentSummary = *summary
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("gateway callback for unknown payment",
				zap.String("invoice_id", result.InvoiceID))
		}
		return nil, nil, err
	}

	if redeliver {
		s.logger.Info("gateway callback redelivered, ignoring",
			zap.String("invoice_id", payment.InvoiceID))
		return booking, payment, nil
	}

	switch result.Status {
	case domain.PaymentStatusSuccess:
		s.notifications.PaymentReceived(ctx, booking, payment)
	default:
		s.notifications.PaymentFailed(ctx, booking, payment)
	}

	s.logger.Info("gateway callback processed",
		zap.String("invoice_id", payment.InvoiceID),
		zap.String("pnr", payment.PayableID),
		zap.String("status", string(payment.Status)),
	)

	return booking, payment, nil
}

// HandleCancel marks the in-flight gateway payment cancelled when the
// customer backs out at the gateway page.
func (s *GatewayService) HandleCancel(ctx context.Context, invoiceID string) (*domain.Payment, error) {
	if invoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}

	var payment *domain.Payment
	err := s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		var err error
		payment, err = payments.GetByInvoiceID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if payment.Status.Terminal() {
			return nil
		}

		payment.Status = domain.PaymentStatusCancelled
		payment.Timestamp = time.Now()
		if err := payments.Update(ctx, payment); err != nil {
			return err
		}

		if err := bookings.UpdateStatus(ctx, payment.PayableID, domain.BookingStatusRequest); err != nil {
			return err
		}

		_, err = s.reconciler.Apply(ctx, bookings, payments, payment.PayableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// withTx runs fn against transaction-scoped repositories and commits. With a
// nil database handle the injected repositories are used as-is.
func (s *GatewayService) withTx(ctx context.Context, fn func(repository.BookingRepository, repository.PaymentRepository) error) error {
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
