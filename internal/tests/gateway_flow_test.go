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
	"github.com/jypsi/cabs/internal/gateway"
	"github.com/jypsi/cabs/internal/service"
)

// ──────────────────────────────────────────────
// 5. GATEWAY CHARGE FLOW
// ──────────────────────────────────────────────

type gatewayFixture struct {
	svc      *service.GatewayService
	bookings *MockBookingRepository
	payments *MockPaymentRepository
	provider *MockProvider
	sender   *RecorderSender
}

func newGatewayFixture(t *testing.T, totalFare int64) (*gatewayFixture, *domain.Booking) {
	t.Helper()

	logger := zap.NewNop()
	bookings := NewMockBookingRepository()
	payments := NewMockPaymentRepository()
	provider := &MockProvider{}
	sender := NewRecorderSender()

	booking := &domain.Booking{
		PNR:            "PNRGW001",
		Source:         "Guwahati",
		Destination:    "Shillong",
		Status:         domain.BookingStatusRequest,
		TotalFare:      totalFare,
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
	svc := service.NewGatewayService(nil, payments, bookings, provider,
		service.NewReconciler(logger), notifications,
		config.BookingConfig{InvoicePrefix: "INV", Currency: "INR"}, logger)

	return &gatewayFixture{
		svc:      svc,
		bookings: bookings,
		payments: payments,
		provider: provider,
		sender:   sender,
	}, booking
}

func TestGatewayStart_CreatesPendingPayment(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	payload, payment, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if payload.URL == "" || payload.Fields["encRequest"] == "" {
		t.Error("expected a redirect payload")
	}
	if payment.Status != domain.PaymentStatusStarted {
		t.Errorf("expected STARTED, got %s", payment.Status)
	}
	if payment.Mode != domain.PaymentModeGateway {
		t.Errorf("expected GATEWAY mode, got %s", payment.Mode)
	}
	if !payment.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected charge for the full due 1000, got %s", payment.Amount)
	}

	if f.bookings.GetBooking(booking.PNR).Status != domain.BookingStatusAttempt {
		t.Error("expected booking moved to ATTEMPT")
	}
}

func TestGatewayStart_PendingPaymentDoesNotSettle(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	if _, _, err := f.svc.Start(context.Background(), booking.PNR); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// An unsettled gateway payment must not move the balance.
	history, _ := f.payments.ListByPayable(context.Background(), domain.PayableKindBooking, booking.PNR)
	summary := service.Summarize(1000, history)
	if !summary.PaymentDone.IsZero() {
		t.Errorf("expected payment done 0 while STARTED, got %s", summary.PaymentDone)
	}
	if summary.PaymentStatus != domain.SettlementNotPaid {
		t.Errorf("expected NOT_PAID, got %s", summary.PaymentStatus)
	}
}

func TestGatewayStart_ReusesAbandonedPayment(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, first, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	_, second, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if second.InvoiceID != first.InvoiceID {
		t.Errorf("expected the abandoned session to be reused, got %s and %s", first.InvoiceID, second.InvoiceID)
	}
	if f.payments.CreateCallCount != 1 {
		t.Errorf("expected one pending row, got %d creates", f.payments.CreateCallCount)
	}
}

func TestGatewayCallback_SuccessConfirmsAndSettles(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, payment, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	f.provider.CallbackResult = &gateway.CallbackResult{
		InvoiceID: payment.InvoiceID,
		Status:    domain.PaymentStatusSuccess,
		Raw:       map[string]string{"order_id": payment.InvoiceID, "tracking_id": "TRK123"},
	}

	updatedBooking, updatedPayment, err := f.svc.HandleCallback(context.Background(), "encrypted-blob")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if updatedPayment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", updatedPayment.Status)
	}
	if updatedPayment.ReferenceID != "TRK123" {
		t.Errorf("expected tracking id captured, got %q", updatedPayment.ReferenceID)
	}
	if updatedBooking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", updatedBooking.Status)
	}
	if updatedBooking.PaymentStatus != domain.SettlementPaid {
		t.Errorf("expected PAID, got %s", updatedBooking.PaymentStatus)
	}
	if updatedBooking.PaymentDue != 0 {
		t.Errorf("expected due 0, got %d", updatedBooking.PaymentDue)
	}
	if f.sender.SMSCount() != 1 {
		t.Errorf("expected payment received notification, got %d", f.sender.SMSCount())
	}
}

func TestGatewayCallback_FailureReturnsBookingToRequest(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, payment, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	f.provider.CallbackResult = &gateway.CallbackResult{
		InvoiceID: payment.InvoiceID,
		Status:    domain.PaymentStatusFailure,
		Raw:       map[string]string{"order_id": payment.InvoiceID},
	}

	updatedBooking, updatedPayment, err := f.svc.HandleCallback(context.Background(), "encrypted-blob")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updatedPayment.Status != domain.PaymentStatusFailure {
		t.Errorf("expected FAILURE, got %s", updatedPayment.Status)
	}
	if updatedBooking.Status != domain.BookingStatusRequest {
		t.Errorf("expected booking back to REQUEST, got %s", updatedBooking.Status)
	}
	if updatedBooking.PaymentStatus != domain.SettlementNotPaid {
		t.Errorf("expected NOT_PAID, got %s", updatedBooking.PaymentStatus)
	}
}

func TestGatewayCallback_MalformedPayloadMutatesNothing(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, _, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	updatesBefore := f.payments.UpdateCallCount

	_, _, err = f.svc.HandleCallback(context.Background(), "garbage")
	if !errors.Is(err, gateway.ErrMalformedCallback) {
		t.Fatalf("expected ErrMalformedCallback, got: %v", err)
	}
	if f.payments.UpdateCallCount != updatesBefore {
		t.Error("expected no payment mutation for a malformed callback")
	}
	if f.bookings.GetBooking(booking.PNR).Status != domain.BookingStatusAttempt {
		t.Error("expected booking status unchanged")
	}
}

func TestGatewayCallback_UnknownInvoiceMutatesNothing(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	if _, _, err := f.svc.Start(context.Background(), booking.PNR); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	f.provider.CallbackResult = &gateway.CallbackResult{
		InvoiceID: "INVNOPE",
		Status:    domain.PaymentStatusSuccess,
		Raw:       map[string]string{"order_id": "INVNOPE"},
	}

	updatesBefore := f.payments.UpdateCallCount
	_, _, err := f.svc.HandleCallback(context.Background(), "encrypted-blob")
	if err == nil {
		t.Fatal("expected an error for an unknown invoice")
	}
	if f.payments.UpdateCallCount != updatesBefore {
		t.Error("expected no payment mutation for an unknown invoice")
	}
}

func TestGatewayCallback_DuplicateDeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, payment, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	f.provider.CallbackResult = &gateway.CallbackResult{
		InvoiceID: payment.InvoiceID,
		Status:    domain.PaymentStatusSuccess,
		Raw:       map[string]string{"order_id": payment.InvoiceID},
	}

	if _, _, err := f.svc.HandleCallback(context.Background(), "encrypted-blob"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	updatesAfterFirst := f.payments.UpdateCallCount
	smsAfterFirst := f.sender.SMSCount()

	// The provider retries the same delivery.
	updatedBooking, updatedPayment, err := f.svc.HandleCallback(context.Background(), "encrypted-blob")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updatedPayment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected SUCCESS retained, got %s", updatedPayment.Status)
	}
	if updatedBooking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED retained, got %s", updatedBooking.Status)
	}
	if f.payments.UpdateCallCount != updatesAfterFirst {
		t.Error("expected no further payment writes on redelivery")
	}
	if f.sender.SMSCount() != smsAfterFirst {
		t.Error("expected no further notifications on redelivery")
	}
}

func TestGatewayCancel_ReleasesBooking(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)

	_, payment, err := f.svc.Start(context.Background(), booking.PNR)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	cancelled, err := f.svc.HandleCancel(context.Background(), payment.InvoiceID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cancelled.Status != domain.PaymentStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if f.bookings.GetBooking(booking.PNR).Status != domain.BookingStatusRequest {
		t.Error("expected booking returned to REQUEST")
	}
}

func TestGatewayStart_NothingDue_Fails(t *testing.T) {
	t.Parallel()

	f, booking := newGatewayFixture(t, 1000)
	stored := f.bookings.GetBooking(booking.PNR)
	stored.PaymentDue = 0
	stored.PaymentStatus = domain.SettlementPaid

	_, _, err := f.svc.Start(context.Background(), booking.PNR)
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got: %v", err)
	}
	if f.provider.StartCallCount != 0 {
		t.Error("expected no provider session for a settled booking")
	}
}
