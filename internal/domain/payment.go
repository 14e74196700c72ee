package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType is the accounting direction of a payment.
type PaymentType int

const (
	PaymentTypeIncome      PaymentType = 1
	PaymentTypeExpenditure PaymentType = -1
)

// PaymentMode represents how the money moved.
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeGateway      PaymentMode = "GATEWAY"
)

// PaymentStatus represents the gateway-tracked status of a payment.
type PaymentStatus string

const (
	PaymentStatusWaiting   PaymentStatus = "WAITING"
	PaymentStatusStarted   PaymentStatus = "STARTED"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusAborted   PaymentStatus = "ABORTED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusFailure   PaymentStatus = "FAILURE"
	PaymentStatusError     PaymentStatus = "ERROR"
)

// Terminal reports whether the status admits no further gateway transition.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusCancelled, PaymentStatusAborted,
		PaymentStatusRefunded, PaymentStatusFailure, PaymentStatusError:
		return true
	}
	return false
}

// PayableKind tags the kind of entity a payment is made towards.
type PayableKind string

const (
	PayableKindBooking PayableKind = "booking"
)

// Payment is a single financial transaction attached to a payable entity.
type Payment struct {
	InvoiceID   string
	PayableKind PayableKind
	PayableID   string

	Amount      decimal.Decimal
	Currency    string
	Type        PaymentType
	Mode        PaymentMode
	Status      PaymentStatus
	ReferenceID string
	Comment     string
	Details     string
	Timestamp   time.Time

	// Accounting audit trail, editable only with the verify-payment
	// permission.
	AccountsVerified      bool
	AccountsReceived      decimal.Decimal
	AccountsDue           decimal.Decimal
	AccountsComment       string
	AccountsVerifiedAt    time.Time
	AccountsLastUpdatedBy string
	AccountsLastUpdatedAt time.Time

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Received is the signed amount: positive for income, negative for expenditure.
func (p *Payment) Received() decimal.Decimal {
	return p.Amount.Mul(decimal.NewFromInt(int64(p.Type)))
}

// Settled reports whether the payment counts towards the payable's balance.
// Cash and bank transfers count immediately; gateway payments only once the
// gateway confirms success.
func (p *Payment) Settled() bool {
	return p.Mode != PaymentModeGateway || p.Status == PaymentStatusSuccess
}

// ApplyAccounting recomputes the derived accounting fields. AccountsDue is
// always amount minus received; the verified timestamp tracks the verified
// flag's transitions.
func (p *Payment) ApplyAccounting(now time.Time) {
	p.AccountsDue = p.Amount.Sub(p.AccountsReceived)
	if p.AccountsVerified && p.AccountsVerifiedAt.IsZero() {
		p.AccountsVerifiedAt = now
	} else if !p.AccountsVerified && !p.AccountsVerifiedAt.IsZero() {
		p.AccountsVerifiedAt = time.Time{}
	}
}

// NewInvoiceID generates a unique invoice identifier with the given prefix.
func NewInvoiceID(prefix string) string {
	sum := md5.Sum([]byte(uuid.New().String()))
	return prefix + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}
