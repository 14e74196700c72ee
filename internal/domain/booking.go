package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusRequest   BookingStatus = "REQUEST"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
	// BookingStatusAttempt marks a booking waiting on a gateway charge.
	BookingStatusAttempt BookingStatus = "ATTEMPT"
)

// BookingType represents the trip type.
type BookingType string

const (
	BookingTypeOneWay    BookingType = "ONE_WAY"
	BookingTypeRoundTrip BookingType = "ROUND_TRIP"
)

// SettlementStatus is the derived payment progress of a booking.
type SettlementStatus string

const (
	SettlementNotPaid SettlementStatus = "NOT_PAID"
	SettlementPartial SettlementStatus = "PARTIAL"
	SettlementPaid    SettlementStatus = "PAID"
)

// TaxLine is one applied tax within a fare breakdown.
type TaxLine struct {
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`
	Amount int64   `json:"amount"`
}

// TaxBreakdown groups the applied taxes and their sum.
type TaxBreakdown struct {
	Lines []TaxLine `json:"lines,omitempty"`
	Total int64     `json:"total"`
}

// FareDetails is the structured breakdown behind a booking's total fare.
// It is computed once at booking creation and only changes through an
// explicit markup/discount override.
type FareDetails struct {
	TariffPerKM      int64        `json:"tariff_per_km"`
	TariffAfterHours int64        `json:"tariff_after_hours"`
	Price            int64        `json:"price"`
	DriverCharge     int64        `json:"driver_charge"`
	Taxes            TaxBreakdown `json:"taxes"`
	Markup           int64        `json:"markup"`
	Discount         int64        `json:"discount"`
	Total            int64        `json:"total"`
}

// Retotal recomputes the fare total from its components.
func (f *FareDetails) Retotal() {
	f.Total = f.Price + f.Taxes.Total + f.Markup - f.Discount
}

// PaymentSummary holds the aggregates derived from a booking's payment
// history. Only the reconciler writes these.
type PaymentSummary struct {
	PaymentDone     decimal.Decimal
	Expenses        decimal.Decimal
	PaymentDue      int64
	PaymentStatus   SettlementStatus
	Revenue         decimal.Decimal
	LastPaymentDate time.Time
}

// Booking is a single customer trip request with fare and payment aggregates.
type Booking struct {
	PNR string

	Source          string
	Destination     string
	TravelAt        time.Time
	VehicleCategory string
	Type            BookingType
	Passengers      int
	PickupPoint     string
	ExtraInfo       string

	CustomerName   string
	CustomerMobile string
	CustomerEmail  string

	Status BookingStatus

	TotalFare int64
	Fare      FareDetails
	Distance  int64

	PaymentSummary

	VehicleID  string
	DriverID   string
	DriverPaid bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasContact reports whether the customer contact invariant holds: at least
// one of mobile or email must be present.
func (b *Booking) HasContact() bool {
	return b.CustomerMobile != "" || b.CustomerEmail != ""
}

// NewPNR generates the booking identifier: a hash of the trip attributes plus
// a random component, truncated and prefixed.
func NewPNR(prefix string, b *Booking) string {
	text := fmt.Sprintf("%s-%s-%s-%s-%s-%s-%s-%s",
		b.Source, b.Destination, b.Type, b.TravelAt.Format(time.RFC3339),
		b.VehicleCategory, b.CustomerName, b.CustomerMobile, uuid.New())
	sum := md5.Sum([]byte(text))
	return prefix + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}
