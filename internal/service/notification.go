package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/domain"
)

// Sender is the outbound notification boundary. Implementations are
// fire-and-forget transports (SMS gateway, SMTP relay).
type Sender interface {
	SendSMS(ctx context.Context, mobiles []string, message string) error
	SendEmail(ctx context.Context, subject, body, to string) error
}

// LogSender is a Sender that only logs. It stands in for the real SMS/email
// transports in development and tests.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendSMS logs the message instead of delivering it.
func (s *LogSender) SendSMS(ctx context.Context, mobiles []string, message string) error {
	s.logger.Info("sms", zap.Strings("mobiles", mobiles), zap.String("message", message))
	return nil
}

// SendEmail logs the message instead of delivering it.
func (s *LogSender) SendEmail(ctx context.Context, subject, body, to string) error {
	s.logger.Info("email", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NotificationService composes and dispatches booking/payment notifications.
// Delivery is best-effort: transport failures are logged and swallowed, never
// allowed to abort the state transition that triggered them.
type NotificationService struct {
	sender Sender
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{sender: sender, logger: logger}
}

// BookingReceived notifies the customer that their request was recorded.
func (s *NotificationService) BookingReceived(ctx context.Context, booking *domain.Booking) {
	message := fmt.Sprintf(
		"Your booking %s (%s to %s on %s) has been received. We will confirm it shortly.",
		booking.PNR, booking.Source, booking.Destination,
		booking.TravelAt.Format("02 Jan 2006 15:04"))
	s.notify(ctx, booking, "Booking received", message)
}

// BookingConfirmed notifies the customer of a confirmed booking.
func (s *NotificationService) BookingConfirmed(ctx context.Context, booking *domain.Booking) {
	message := fmt.Sprintf(
		"Your booking %s is confirmed. Total fare: %d. Amount due: %d.",
		booking.PNR, booking.TotalFare, booking.PaymentDue)
	s.notify(ctx, booking, "Booking confirmed", message)
}

// BookingDeclined notifies the customer of a declined booking.
func (s *NotificationService) BookingDeclined(ctx context.Context, booking *domain.Booking) {
	message := fmt.Sprintf("Sorry, your booking %s could not be served.", booking.PNR)
	s.notify(ctx, booking, "Booking declined", message)
}

// PaymentReceived notifies the customer that a payment was recorded.
func (s *NotificationService) PaymentReceived(ctx context.Context, booking *domain.Booking, payment *domain.Payment) {
	message := fmt.Sprintf(
		"Payment of %s %s received for booking %s (invoice %s).",
		payment.Amount.StringFixed(2), payment.Currency, booking.PNR, payment.InvoiceID)
	s.notify(ctx, booking, "Payment received", message)
}

// PaymentFailed notifies the customer of a failed or aborted online payment.
func (s *NotificationService) PaymentFailed(ctx context.Context, booking *domain.Booking, payment *domain.Payment) {
	message := fmt.Sprintf(
		"Your online payment for booking %s was not completed (%s). Please try again.",
		booking.PNR, payment.Status)
	s.notify(ctx, booking, "Payment failed", message)
}

func (s *NotificationService) notify(ctx context.Context, booking *domain.Booking, subject, message string) {
	if booking.CustomerMobile != "" {
		if err := s.sender.SendSMS(ctx, []string{booking.CustomerMobile}, message); err != nil {
			s.logger.Warn("sms delivery failed", zap.String("pnr", booking.PNR), zap.Error(err))
		}
	}
	if booking.CustomerEmail != "" {
		if err := s.sender.SendEmail(ctx, subject, message, booking.CustomerEmail); err != nil {
			s.logger.Warn("email delivery failed", zap.String("pnr", booking.PNR), zap.Error(err))
		}
	}
}
