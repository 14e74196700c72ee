package repository

import (
	"context"

	"github.com/jypsi/cabs/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByInvoiceID retrieves a payment by its invoice id.
	GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Payment, error)

	// ListByPayable retrieves all payments towards one payable entity,
	// ordered by timestamp ascending.
	ListByPayable(ctx context.Context, kind domain.PayableKind, id string) ([]*domain.Payment, error)

	// FindByCommentPrefix retrieves the first payment towards a payable
	// whose comment starts with the given prefix. Returns nil when none
	// exists.
	FindByCommentPrefix(ctx context.Context, kind domain.PayableKind, id, prefix string) (*domain.Payment, error)

	// Update persists changes to a payment.
	Update(ctx context.Context, payment *domain.Payment) error

	// Delete removes a payment.
	Delete(ctx context.Context, invoiceID string) error
}
