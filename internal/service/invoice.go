package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// InvoiceItem is one billable line on an invoice.
type InvoiceItem struct {
	Description string
	Amount      int64
}

// InvoicePayload is the renderer-independent content of a booking invoice.
type InvoicePayload struct {
	ID   string
	Date time.Time

	BusinessName    string
	BusinessAddress string
	Footer          string

	CustomerLines []string
	Items         []InvoiceItem
	TaxLines      []domain.TaxLine

	Total    int64
	Paid     int64
	Due      int64
	Currency string
}

// Renderer turns an invoice payload into a downloadable document.
type Renderer interface {
	Render(payload *InvoicePayload) ([]byte, error)
}

// InvoiceService assembles invoice payloads from bookings and hands them to
// the configured renderer.
type InvoiceService struct {
	bookings repository.BookingRepository
	renderer Renderer
	cfg      config.InvoiceConfig
	booking  config.BookingConfig
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(bookings repository.BookingRepository, renderer Renderer, cfg config.InvoiceConfig, booking config.BookingConfig) *InvoiceService {
	return &InvoiceService{
		bookings: bookings,
		renderer: renderer,
		cfg:      cfg,
		booking:  booking,
	}
}

// Build assembles the invoice payload for a booking.
func (s *InvoiceService) Build(ctx context.Context, pnr string) (*InvoicePayload, error) {
	if pnr == "" {
		return nil, ErrInvalidPNR
	}

	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}

	customer := []string{booking.CustomerName}
	if booking.CustomerMobile != "" {
		customer = append(customer, booking.CustomerMobile)
	}
	if booking.CustomerEmail != "" {
		customer = append(customer, booking.CustomerEmail)
	}

	description := fmt.Sprintf("%s to %s (%s), travel on %s",
		booking.Source, booking.Destination, tripLabel(booking.Type),
		booking.TravelAt.Format("02 Jan 2006 15:04"))

	items := []InvoiceItem{{Description: description, Amount: booking.Fare.Price}}
	if booking.Fare.Markup != 0 {
		items = append(items, InvoiceItem{Description: "Additional charges", Amount: booking.Fare.Markup})
	}
	if booking.Fare.Discount != 0 {
		items = append(items, InvoiceItem{Description: "Discount", Amount: -booking.Fare.Discount})
	}

	paid := booking.PaymentDone.Round(0).IntPart()

	return &InvoicePayload{
		ID:              pnr,
		Date:            time.Now(),
		BusinessName:    s.cfg.BusinessName,
		BusinessAddress: s.cfg.BusinessAddress,
		Footer:          s.cfg.Footer,
		CustomerLines:   customer,
		Items:           items,
		TaxLines:        booking.Fare.Taxes.Lines,
		Total:           booking.TotalFare,
		Paid:            paid,
		Due:             booking.PaymentDue,
		Currency:        s.booking.Currency,
	}, nil
}

// Render builds and renders the invoice for a booking.
func (s *InvoiceService) Render(ctx context.Context, pnr string) ([]byte, error) {
	payload, err := s.Build(ctx, pnr)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(payload)
}

func tripLabel(t domain.BookingType) string {
	if t == domain.BookingTypeRoundTrip {
		return "round trip"
	}
	return "one way"
}
