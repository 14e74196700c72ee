package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// Summarize derives a booking's payment aggregates from its full payment
// history. It is a pure function: running it twice over the same inputs
// yields the same summary.
//
// Cash and bank-transfer payments count as soon as they exist; gateway
// payments count only once the gateway confirmed success.
func Summarize(totalFare int64, payments []*domain.Payment) domain.PaymentSummary {
	done := decimal.Zero
	expenses := decimal.Zero
	var last time.Time

	for _, p := range payments {
		if !p.Settled() {
			continue
		}

		switch p.Type {
		case domain.PaymentTypeIncome:
			done = done.Add(p.Amount)
		case domain.PaymentTypeExpenditure:
			expenses = expenses.Add(p.Amount)
		default:
			continue
		}

		if p.Timestamp.After(last) {
			last = p.Timestamp
		}
	}

	due := totalFare - done.Round(0).IntPart()

	status := domain.SettlementNotPaid
	if !done.IsZero() {
		if due > 0 {
			status = domain.SettlementPartial
		} else {
			status = domain.SettlementPaid
		}
	}

	return domain.PaymentSummary{
		PaymentDone:     done,
		Expenses:        expenses,
		PaymentDue:      due,
		PaymentStatus:   status,
		Revenue:         done.Sub(expenses),
		LastPaymentDate: last,
	}
}

// Reconciler recomputes and persists booking payment aggregates. Payment
// write operations invoke it explicitly, with repositories scoped to their
// own transaction, so the read-then-write of the aggregates commits atomically
// with the payment change.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Apply loads the booking and its payment history through the given
// repositories, summarizes, and persists the aggregates on the booking.
func (r *Reconciler) Apply(ctx context.Context, bookings repository.BookingRepository, payments repository.PaymentRepository, pnr string) (*domain.PaymentSummary, error) {
	booking, err := bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}

	history, err := payments.ListByPayable(ctx, domain.PayableKindBooking, pnr)
	if err != nil {
		return nil, err
	}

	summary := Summarize(booking.TotalFare, history)
	if err := bookings.UpdatePaymentSummary(ctx, pnr, summary); err != nil {
		return nil, err
	}

	r.logger.Debug("booking reconciled",
		zap.String("pnr", pnr),
		zap.String("payment_done", summary.PaymentDone.String()),
		zap.Int64("payment_due", summary.PaymentDue),
		zap.String("payment_status", string(summary.PaymentStatus)),
	)

	return &summary, nil
}
