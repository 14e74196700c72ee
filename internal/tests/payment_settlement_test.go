package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/service"
)

// ──────────────────────────────────────────────
// 3. PAYMENT RECORDING AND SETTLEMENT
// ──────────────────────────────────────────────

type paymentFixture struct {
	svc      *service.PaymentService
	bookings *MockBookingRepository
	payments *MockPaymentRepository
	drivers  *MockDriverRepository
	locks    *MockLocker
	sender   *RecorderSender
}

func newPaymentFixture(t *testing.T, totalFare int64) (*paymentFixture, *domain.Booking) {
	t.Helper()

	logger := zap.NewNop()
	bookings := NewMockBookingRepository()
	payments := NewMockPaymentRepository()
	drivers := NewMockDriverRepository()
	locks := NewMockLocker()
	sender := NewRecorderSender()

	booking := &domain.Booking{
		PNR:            "PNRTEST01",
		Source:         "Guwahati",
		Destination:    "Shillong",
		Status:         domain.BookingStatusRequest,
		TotalFare:      totalFare,
		Fare:           domain.FareDetails{Price: totalFare, Total: totalFare, DriverCharge: 300},
		CustomerName:   "Asha",
		CustomerMobile: "9800000001",
		PaymentSummary: domain.PaymentSummary{
			PaymentDue:    totalFare,
			PaymentStatus: domain.SettlementNotPaid,
		},
		CreatedAt: time.Now(),
	}
	bookings.AddBooking(booking)

	notifications := service.NewNotificationService(sender, logger)
	svc := service.NewPaymentService(nil, payments, bookings, drivers,
		service.NewReconciler(logger), locks, notifications,
		config.BookingConfig{InvoicePrefix: "INV", Currency: "INR"}, logger)

	return &paymentFixture{
		svc:      svc,
		bookings: bookings,
		payments: payments,
		drivers:  drivers,
		locks:    locks,
		sender:   sender,
	}, booking
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	first, err := f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:    booking.PNR,
		Amount: decimal.NewFromInt(400),
		Type:   domain.PaymentTypeIncome,
		Mode:   domain.PaymentModeCash,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	stored := f.bookings.GetBooking(booking.PNR)
	if stored.PaymentDue != 600 {
		t.Errorf("expected due 600, got %d", stored.PaymentDue)
	}
	if stored.PaymentStatus != domain.SettlementPartial {
		t.Errorf("expected PARTIAL, got %s", stored.PaymentStatus)
	}
	if first.InvoiceID == "" {
		t.Error("expected invoice id to be generated")
	}

	_, err = f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:    booking.PNR,
		Amount: decimal.NewFromInt(600),
		Type:   domain.PaymentTypeIncome,
		Mode:   domain.PaymentModeBankTransfer,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	stored = f.bookings.GetBooking(booking.PNR)
	if stored.PaymentDue != 0 {
		t.Errorf("expected due 0, got %d", stored.PaymentDue)
	}
	if stored.PaymentStatus != domain.SettlementPaid {
		t.Errorf("expected PAID, got %s", stored.PaymentStatus)
	}
	if f.sender.SMSCount() != 2 {
		t.Errorf("expected 2 payment notifications, got %d", f.sender.SMSCount())
	}
}

func TestRecordPayment_ExpenditureReducesRevenueNotDue(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	mustRecord(t, f, booking.PNR, 1000, domain.PaymentTypeIncome)
	_, err := f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:     booking.PNR,
		Amount:  decimal.NewFromInt(300),
		Type:    domain.PaymentTypeExpenditure,
		Mode:    domain.PaymentModeCash,
		Comment: "Fuel advance",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	stored := f.bookings.GetBooking(booking.PNR)
	if stored.PaymentDue != 0 {
		t.Errorf("expected expenditures to leave due untouched, got %d", stored.PaymentDue)
	}
	if stored.PaymentStatus != domain.SettlementPaid {
		t.Errorf("expected PAID, got %s", stored.PaymentStatus)
	}
	if !stored.Revenue.Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected revenue 700, got %s", stored.Revenue)
	}
}

func TestRecordPayment_RejectsGatewayMode(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	_, err := f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:    booking.PNR,
		Amount: decimal.NewFromInt(100),
		Type:   domain.PaymentTypeIncome,
		Mode:   domain.PaymentModeGateway,
	})
	if !errors.Is(err, service.ErrInvalidPaymentMode) {
		t.Fatalf("expected ErrInvalidPaymentMode, got: %v", err)
	}
}

func TestRecordPayment_LockedBooking_Conflicts(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)
	f.locks.Hold(booking.PNR)

	_, err := f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:    booking.PNR,
		Amount: decimal.NewFromInt(100),
		Type:   domain.PaymentTypeIncome,
		Mode:   domain.PaymentModeCash,
	})
	if !errors.Is(err, service.ErrBookingBusy) {
		t.Fatalf("expected ErrBookingBusy, got: %v", err)
	}
	if f.payments.CreateCallCount != 0 {
		t.Error("expected no payment row while the booking is locked")
	}
}

func TestUpdatePayment_GatewayFinancialsImmutable(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	gw := &domain.Payment{
		InvoiceID:   "INVGW001",
		PayableKind: domain.PayableKindBooking,
		PayableID:   booking.PNR,
		Amount:      decimal.NewFromInt(1000),
		Type:        domain.PaymentTypeIncome,
		Mode:        domain.PaymentModeGateway,
		Status:      domain.PaymentStatusSuccess,
		Timestamp:   time.Now(),
	}
	f.payments.AddPayment(gw)

	_, err := f.svc.Update(context.Background(), service.UpdatePaymentRequest{
		InvoiceID: "INVGW001",
		Amount:    decimal.NewFromInt(500),
		Type:      domain.PaymentTypeIncome,
		Mode:      domain.PaymentModeGateway,
	})
	if !errors.Is(err, service.ErrGatewayPaymentImmutable) {
		t.Fatalf("expected ErrGatewayPaymentImmutable, got: %v", err)
	}

	// The comment alone may change.
	updated, err := f.svc.Update(context.Background(), service.UpdatePaymentRequest{
		InvoiceID: "INVGW001",
		Amount:    decimal.NewFromInt(1000),
		Type:      domain.PaymentTypeIncome,
		Mode:      domain.PaymentModeGateway,
		Comment:   "settled via card",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.Comment != "settled via card" {
		t.Errorf("expected comment update, got %q", updated.Comment)
	}
}

func TestDeletePayment_Recomputes(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	payment := mustRecord(t, f, booking.PNR, 1000, domain.PaymentTypeIncome)
	if f.bookings.GetBooking(booking.PNR).PaymentStatus != domain.SettlementPaid {
		t.Fatal("expected PAID before delete")
	}

	if err := f.svc.Delete(context.Background(), payment.InvoiceID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	stored := f.bookings.GetBooking(booking.PNR)
	if stored.PaymentStatus != domain.SettlementNotPaid {
		t.Errorf("expected NOT_PAID after delete, got %s", stored.PaymentStatus)
	}
	if stored.PaymentDue != 1000 {
		t.Errorf("expected due 1000 after delete, got %d", stored.PaymentDue)
	}
}

func TestUpdateAccounts_PermissionAndDerivedFields(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)
	payment := mustRecord(t, f, booking.PNR, 1000, domain.PaymentTypeIncome)

	_, err := f.svc.UpdateAccounts(context.Background(), service.UpdateAccountsRequest{
		InvoiceID: payment.InvoiceID,
		Verified:  true,
		Received:  decimal.NewFromInt(600),
		Permitted: false,
	})
	if !errors.Is(err, service.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got: %v", err)
	}

	updated, err := f.svc.UpdateAccounts(context.Background(), service.UpdateAccountsRequest{
		InvoiceID: payment.InvoiceID,
		Verified:  true,
		Received:  decimal.NewFromInt(600),
		UpdatedBy: "staff-7",
		Permitted: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !updated.AccountsDue.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected accounts due 400, got %s", updated.AccountsDue)
	}
	if updated.AccountsVerifiedAt.IsZero() {
		t.Error("expected verified timestamp to be stamped")
	}

	// Unverifying clears the timestamp.
	updated, err = f.svc.UpdateAccounts(context.Background(), service.UpdateAccountsRequest{
		InvoiceID: payment.InvoiceID,
		Verified:  false,
		Received:  decimal.NewFromInt(600),
		UpdatedBy: "staff-7",
		Permitted: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !updated.AccountsVerifiedAt.IsZero() {
		t.Error("expected verified timestamp cleared")
	}
}

// ──────────────────────────────────────────────
// 4. DRIVER PAYOUT
// ──────────────────────────────────────────────

func TestPayDriver_CreatesExpenditureOnce(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)
	f.drivers.AddDriver(&domain.Driver{ID: "drv-1", Name: "Bikash", Mobile: "9800000099"})

	stored := f.bookings.GetBooking(booking.PNR)
	stored.DriverID = "drv-1"

	first, err := f.svc.PayDriver(context.Background(), booking.PNR, "staff-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if first.Type != domain.PaymentTypeExpenditure {
		t.Errorf("expected expenditure, got %d", first.Type)
	}
	if !first.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected payout 300, got %s", first.Amount)
	}
	if !f.bookings.GetBooking(booking.PNR).DriverPaid {
		t.Error("expected booking marked driver paid")
	}

	second, err := f.svc.PayDriver(context.Background(), booking.PNR, "staff-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if second.InvoiceID != first.InvoiceID {
		t.Errorf("expected repeat payout to reuse %s, got %s", first.InvoiceID, second.InvoiceID)
	}
	if f.payments.CreateCallCount != 1 {
		t.Errorf("expected exactly one payout row, got %d creates", f.payments.CreateCallCount)
	}
}

func TestPayDriver_Preconditions(t *testing.T) {
	t.Parallel()

	f, booking := newPaymentFixture(t, 1000)

	_, err := f.svc.PayDriver(context.Background(), booking.PNR, "staff-1")
	if !errors.Is(err, service.ErrNoDriverAssigned) {
		t.Fatalf("expected ErrNoDriverAssigned, got: %v", err)
	}

	f.drivers.AddDriver(&domain.Driver{ID: "drv-1", Name: "Bikash", Mobile: "98"})
	stored := f.bookings.GetBooking(booking.PNR)
	stored.DriverID = "drv-1"
	stored.Fare.DriverCharge = 0

	_, err = f.svc.PayDriver(context.Background(), booking.PNR, "staff-1")
	if !errors.Is(err, service.ErrNoDriverCharge) {
		t.Fatalf("expected ErrNoDriverCharge, got: %v", err)
	}
}

func mustRecord(t *testing.T, f *paymentFixture, pnr string, amount int64, typ domain.PaymentType) *domain.Payment {
	t.Helper()
	payment, err := f.svc.Record(context.Background(), service.RecordPaymentRequest{
		PNR:    pnr,
		Amount: decimal.NewFromInt(amount),
		Type:   typ,
		Mode:   domain.PaymentModeCash,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return payment
}
