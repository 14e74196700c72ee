package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/redis"
	"github.com/jypsi/cabs/internal/repository"
	"github.com/jypsi/cabs/internal/repository/postgres"
)

// driverPayoutPrefix marks the payout expenditure for a booking's driver so
// repeated payout requests land on the same row.
const driverPayoutPrefix = "Driver payout:"

// bookingLockTTL bounds how long a booking stays locked if a holder dies
// before releasing.
const bookingLockTTL = 10 * time.Second

// PaymentService records manual payments, maintains the accounting audit
// trail and settles driver payouts. Every mutation reconciles the parent
// booking inside the same transaction.
type PaymentService struct {
	db            *sql.DB
	payments      repository.PaymentRepository
	bookings      repository.BookingRepository
	drivers       repository.DriverRepository
	reconciler    *Reconciler
	locks         redis.BookingLocker
	notifications *NotificationService
	cfg           config.BookingConfig
	logger        *zap.Logger
}

// NewPaymentService creates a new PaymentService. db may be nil for direct
// repository access, and locks may be nil to disable booking locking.
func NewPaymentService(
	db *sql.DB,
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	drivers repository.DriverRepository,
	reconciler *Reconciler,
	locks redis.BookingLocker,
	notifications *NotificationService,
	cfg config.BookingConfig,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		db:            db,
		payments:      payments,
		bookings:      bookings,
		drivers:       drivers,
		reconciler:    reconciler,
		locks:         locks,
		notifications: notifications,
		cfg:           cfg,
		logger:        logger,
	}
}

// RecordPaymentRequest contains the parameters for recording a manual payment.
type RecordPaymentRequest struct {
	PNR       string
	Amount    decimal.Decimal
	Type      domain.PaymentType
	Mode      domain.PaymentMode
	Comment   string
	CreatedBy string
}

// Record creates a cash or bank transfer payment against a booking and
// reconciles the booking's aggregates. Gateway payments never enter here;
// they are created by the gateway flow.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*domain.Payment, error) {
	if req.PNR == "" {
		return nil, ErrInvalidPNR
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Type != domain.PaymentTypeIncome && req.Type != domain.PaymentTypeExpenditure {
		return nil, ErrInvalidPaymentType
	}
	if req.Mode != domain.PaymentModeCash && req.Mode != domain.PaymentModeBankTransfer {
		return nil, ErrInvalidPaymentMode
	}

	unlock, err := s.lockBooking(ctx, req.PNR)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := time.Now()
	payment := &domain.Payment{
		InvoiceID:   domain.NewInvoiceID(s.cfg.InvoicePrefix),
		PayableKind: domain.PayableKindBooking,
		PayableID:   req.PNR,
		Amount:      req.Amount,
		Currency:    s.cfg.Currency,
		Type:        req.Type,
		Mode:        req.Mode,
		Status:      domain.PaymentStatusSuccess,
		Comment:     req.Comment,
		Timestamp:   now,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
	}
	payment.ApplyAccounting(now)

	var booking *domain.Booking
	err = s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		if _, err := bookings.GetByPNR(ctx, req.PNR); err != nil {
			return err
		}
		if err := payments.Create(ctx, payment); err != nil {
			return err
		}
		summary, err := s.reconciler.Apply(ctx, bookings, payments, req.PNR)
		if err != nil {
			return err
		}
		booking, err = bookings.GetByPNR(ctx, req.PNR)
		if err != nil {
			return err
		}
		booking.PaymentSummary = *summary
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Type == domain.PaymentTypeIncome {
		s.notifications.PaymentReceived(ctx, booking, payment)
	}

	s.logger.Info("payment recorded",
		zap.String("invoice_id", payment.InvoiceID),
		zap.String("pnr", req.PNR),
		zap.String("amount", payment.Amount.String()),
		zap.String("mode", string(payment.Mode)),
	)

	return payment, nil
}

// UpdatePaymentRequest carries the editable fields of a manual payment.
type UpdatePaymentRequest struct {
	InvoiceID string
	Amount    decimal.Decimal
	Type      domain.PaymentType
	Mode      domain.PaymentMode
	Comment   string
}

// Update edits a payment's financial fields and reconciles. Payments owned by
// the gateway keep their amount, type, mode and status; only the comment may
// change.
func (s *PaymentService) Update(ctx context.Context, req UpdatePaymentRequest) (*domain.Payment, error) {
	if req.InvoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}

	var payment *domain.Payment
	err := s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		var err error
		payment, err = payments.GetByInvoiceID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		if payment.Mode == domain.PaymentModeGateway {
			if !req.Amount.Equal(payment.Amount) || req.Type != payment.Type || req.Mode != payment.Mode {
				return ErrGatewayPaymentImmutable
			}
		} else {
			if !req.Amount.IsPositive() {
				return ErrInvalidAmount
			}
			if req.Type != domain.PaymentTypeIncome && req.Type != domain.PaymentTypeExpenditure {
				return ErrInvalidPaymentType
			}
			if req.Mode != domain.PaymentModeCash && req.Mode != domain.PaymentModeBankTransfer {
				return ErrInvalidPaymentMode
			}
			payment.Amount = req.Amount
			payment.Type = req.Type
			payment.Mode = req.Mode
		}
		payment.Comment = req.Comment
		payment.ApplyAccounting(time.Now())

		if err := payments.Update(ctx, payment); err != nil {
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

// Delete removes a payment and reconciles the booking it was towards.
func (s *PaymentService) Delete(ctx context.Context, invoiceID string) error {
	if invoiceID == "" {
		return ErrInvalidInvoiceID
	}

	return s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		payment, err := payments.GetByInvoiceID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := payments.Delete(ctx, invoiceID); err != nil {
			return err
		}
		_, err = s.reconciler.Apply(ctx, bookings, payments, payment.PayableID)
		return err
	})
}

// GetPayment retrieves a payment by invoice id.
func (s *PaymentService) GetPayment(ctx context.Context, invoiceID string) (*domain.Payment, error) {
	if invoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}
	return s.payments.GetByInvoiceID(ctx, invoiceID)
}

// ListPayments retrieves all payments towards a booking.
func (s *PaymentService) ListPayments(ctx context.Context, pnr string) ([]*domain.Payment, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}
	return s.payments.ListByPayable(ctx, domain.PayableKindBooking, pnr)
}

// UpdateAccountsRequest carries the accounting audit fields of a payment.
type UpdateAccountsRequest struct {
	InvoiceID string
	Verified  bool
	Received  decimal.Decimal
	Comment   string
	UpdatedBy string

	// Permitted reflects the caller's verify-payment permission check.
	Permitted bool
}

// UpdateAccounts edits the accounting audit trail of a payment. The derived
// fields are recomputed on every write.
func (s *PaymentService) UpdateAccounts(ctx context.Context, req UpdateAccountsRequest) (*domain.Payment, error) {
	if !req.Permitted {
		return nil, ErrPermissionDenied
	}
	if req.InvoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}

	payment, err := s.payments.GetByInvoiceID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment.AccountsVerified = req.Verified
	payment.AccountsReceived = req.Received
	payment.AccountsComment = req.Comment
	payment.AccountsLastUpdatedBy = req.UpdatedBy
	payment.AccountsLastUpdatedAt = now
	payment.ApplyAccounting(now)

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// PayDriver records the driver payout for a booking as an expenditure.
// Repeat calls update the existing payout row instead of stacking new ones.
func (s *PaymentService) PayDriver(ctx context.Context, pnr, createdBy string) (*domain.Payment, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}

	unlock, err := s.lockBooking(ctx, pnr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var payment *domain.Payment
	err = s.withTx(ctx, func(bookings repository.BookingRepository, payments repository.PaymentRepository) error {
		booking, err := bookings.GetByPNR(ctx, pnr)
		if err != nil {
			return err
		}
		if booking.DriverID == "" {
			return ErrNoDriverAssigned
		}
		if booking.Fare.DriverCharge <= 0 {
			return ErrNoDriverCharge
		}

		driver, err := s.drivers.GetByID(ctx, booking.DriverID)
		if err != nil {
			return err
		}

		now := time.Now()
		amount := decimal.NewFromInt(booking.Fare.DriverCharge)
		comment := driverPayoutPrefix + " " + driver.Name

		payment, err = payments.FindByCommentPrefix(ctx, domain.PayableKindBooking, pnr, driverPayoutPrefix)
		if err != nil {
			return err
		}
		if payment == nil {
			payment = &domain.Payment{
				InvoiceID:   domain.NewInvoiceID(s.cfg.InvoicePrefix),
				PayableKind: domain.PayableKindBooking,
				PayableID:   pnr,
				Amount:      amount,
				Currency:    s.cfg.Currency,
				Type:        domain.PaymentTypeExpenditure,
				Mode:        domain.PaymentModeCash,
				Status:      domain.PaymentStatusSuccess,
				Comment:     comment,
				Timestamp:   now,
				CreatedBy:   createdBy,
				CreatedAt:   now,
			}
			payment.ApplyAccounting(now)
			if err := payments.Create(ctx, payment); err != nil {
				return err
			}
		} else {
			payment.Amount = amount
			payment.Comment = comment
			payment.ApplyAccounting(now)
			if err := payments.Update(ctx, payment); err != nil {
				return err
			}
		}

		booking.DriverPaid = true
		if err := bookings.Update(ctx, booking); err != nil {
			return err
		}

		_, err = s.reconciler.Apply(ctx, bookings, payments, pnr)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver payout settled",
		zap.String("pnr", pnr),
		zap.String("invoice_id", payment.InvoiceID),
		zap.String("amount", payment.Amount.String()),
	)

	return payment, nil
}

// lockBooking acquires the per-booking lock when a locker is configured. The
// returned func releases it and is always safe to call.
func (s *PaymentService) lockBooking(ctx context.Context, pnr string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	ok, err := s.locks.AcquireBookingLock(ctx, pnr, bookingLockTTL)
	if err != nil {
		s.logger.Warn("booking lock unavailable", zap.String("pnr", pnr), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrBookingBusy
	}

	return func() {
		if err := s.locks.ReleaseBookingLock(context.WithoutCancel(ctx), pnr); err != nil {
			s.logger.Warn("booking lock release failed", zap.String("pnr", pnr), zap.Error(err))
		}
	}, nil
}

// withTx runs fn against transaction-scoped repositories and commits. With a
// nil database handle the injected repositories are used as-is.
func (s *PaymentService) withTx(ctx context.Context, fn func(repository.BookingRepository, repository.PaymentRepository) error) error {
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
