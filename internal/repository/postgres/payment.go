package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `
	invoice_id, payable_kind, payable_id,
	amount, currency, type, mode, status,
	reference_id, comment, details, timestamp,
	accounts_verified, accounts_received, accounts_due, accounts_comment,
	accounts_verified_at, accounts_last_updated_by, accounts_last_updated_at,
	created_by, created_at, updated_at
`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, now(), now())
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.InvoiceID,
		payment.PayableKind,
		payment.PayableID,
		payment.Amount,
		payment.Currency,
		payment.Type,
		payment.Mode,
		nullString(string(payment.Status)),
		payment.ReferenceID,
		payment.Comment,
		payment.Details,
		payment.Timestamp,
		payment.AccountsVerified,
		payment.AccountsReceived,
		payment.AccountsDue,
		payment.AccountsComment,
		nullTime(payment.AccountsVerifiedAt),
		nullString(payment.AccountsLastUpdatedBy),
		nullTime(payment.AccountsLastUpdatedAt),
		nullString(payment.CreatedBy),
	)

	return err
}

// GetByInvoiceID retrieves a payment by its invoice id.
func (r *PaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// ListByPayable retrieves all payments towards one payable entity, ordered by
// timestamp ascending.
func (r *PaymentRepository) ListByPayable(ctx context.Context, kind domain.PayableKind, id string) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE payable_kind = $1 AND payable_id = $2
		ORDER BY timestamp ASC
	`

	rows, err := r.q.QueryContext(ctx, query, kind, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// FindByCommentPrefix retrieves the first payment towards a payable whose
// comment starts with the given prefix. Returns nil when none exists.
func (r *PaymentRepository) FindByCommentPrefix(ctx context.Context, kind domain.PayableKind, id, prefix string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE payable_kind = $1 AND payable_id = $2 AND comment LIKE $3 || '%'
		ORDER BY timestamp ASC
		LIMIT 1
	`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, kind, id, prefix))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

// Update persists changes to a payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments SET
			amount = $1, currency = $2, type = $3, mode = $4, status = $5,
			reference_id = $6, comment = $7, details = $8, timestamp = $9,
			accounts_verified = $10, accounts_received = $11, accounts_due = $12,
			accounts_comment = $13, accounts_verified_at = $14,
			accounts_last_updated_by = $15, accounts_last_updated_at = $16,
			updated_at = now()
		WHERE invoice_id = $17
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.Amount,
		payment.Currency,
		payment.Type,
		payment.Mode,
		nullString(string(payment.Status)),
		payment.ReferenceID,
		payment.Comment,
		payment.Details,
		payment.Timestamp,
		payment.AccountsVerified,
		payment.AccountsReceived,
		payment.AccountsDue,
		payment.AccountsComment,
		nullTime(payment.AccountsVerifiedAt),
		nullString(payment.AccountsLastUpdatedBy),
		nullTime(payment.AccountsLastUpdatedAt),
		payment.InvoiceID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, invoiceID string) error {
	query := `DELETE FROM payments WHERE invoice_id = $1`

	result, err := r.q.ExecContext(ctx, query, invoiceID)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment       domain.Payment
		status        sql.NullString
		verifiedAt    sql.NullTime
		lastUpdatedBy sql.NullString
		lastUpdatedAt sql.NullTime
		createdBy     sql.NullString
	)

	err := row.Scan(
		&payment.InvoiceID,
		&payment.PayableKind,
		&payment.PayableID,
		&payment.Amount,
		&payment.Currency,
		&payment.Type,
		&payment.Mode,
		&status,
		&payment.ReferenceID,
		&payment.Comment,
		&payment.Details,
		&payment.Timestamp,
		&payment.AccountsVerified,
		&payment.AccountsReceived,
		&payment.AccountsDue,
		&payment.AccountsComment,
		&verifiedAt,
		&lastUpdatedBy,
		&lastUpdatedAt,
		&createdBy,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatus(status.String)
	if verifiedAt.Valid {
		payment.AccountsVerifiedAt = verifiedAt.Time
	}
	payment.AccountsLastUpdatedBy = lastUpdatedBy.String
	if lastUpdatedAt.Valid {
		payment.AccountsLastUpdatedAt = lastUpdatedAt.Time
	}
	payment.CreatedBy = createdBy.String

	return &payment, nil
}
