package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/repository"
)

var paymentRows = []string{
	"invoice_id", "payable_kind", "payable_id",
	"amount", "currency", "type", "mode", "status",
	"reference_id", "comment", "details", "timestamp",
	"accounts_verified", "accounts_received", "accounts_due", "accounts_comment",
	"accounts_verified_at", "accounts_last_updated_by", "accounts_last_updated_at",
	"created_by", "created_at", "updated_at",
}

func paymentRow(mock sqlmock.Sqlmock, invoiceID, pnr string, amount string, status string, at time.Time) *sqlmock.Rows {
	return mock.NewRows(paymentRows).AddRow(
		invoiceID, "booking", pnr,
		amount, "INR", 1, "CASH", status,
		"", "", "", at,
		false, "0", amount, "",
		nil, nil, nil,
		nil, at, at,
	)
}

func TestPaymentRepository_GetByInvoiceID(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE invoice_id = \$1`).
		WithArgs("INVAAAA1111").
		WillReturnRows(paymentRow(mock, "INVAAAA1111", "PNRX", "400", "SUCCESS", now))

	repo := NewPaymentRepository(db)
	payment, err := repo.GetByInvoiceID(context.Background(), "INVAAAA1111")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if payment.InvoiceID != "INVAAAA1111" {
		t.Errorf("expected invoice id INVAAAA1111, got %s", payment.InvoiceID)
	}
	if payment.PayableID != "PNRX" {
		t.Errorf("expected payable PNRX, got %s", payment.PayableID)
	}
	if !payment.Amount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected amount 400, got %s", payment.Amount)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", payment.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPaymentRepository_GetByInvoiceID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE invoice_id = \$1`).
		WithArgs("INVMISSING").
		WillReturnRows(mock.NewRows(paymentRows))

	repo := NewPaymentRepository(db)
	_, err = repo.GetByInvoiceID(context.Background(), "INVMISSING")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestPaymentRepository_ListByPayable_OrderedAscending(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := paymentRow(mock, "INV1", "PNRX", "400", "SUCCESS", now.Add(-time.Hour))
	rows.AddRow(
		"INV2", "booking", "PNRX",
		"600", "INR", 1, "BANK_TRANSFER", "SUCCESS",
		"", "", "", now,
		false, "0", "600", "",
		nil, nil, nil,
		nil, now, now,
	)

	mock.ExpectQuery(`SELECT .+ FROM payments\s+WHERE payable_kind = \$1 AND payable_id = \$2\s+ORDER BY timestamp ASC`).
		WithArgs("booking", "PNRX").
		WillReturnRows(rows)

	repo := NewPaymentRepository(db)
	payments, err := repo.ListByPayable(context.Background(), domain.PayableKindBooking, "PNRX")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if payments[0].InvoiceID != "INV1" || payments[1].InvoiceID != "INV2" {
		t.Error("expected history in insertion order")
	}
}

func TestPaymentRepository_FindByCommentPrefix_NoMatchIsNil(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM payments\s+WHERE payable_kind = \$1 AND payable_id = \$2 AND comment LIKE \$3`).
		WithArgs("booking", "PNRX", "Driver payout:").
		WillReturnRows(mock.NewRows(paymentRows))

	repo := NewPaymentRepository(db)
	payment, err := repo.FindByCommentPrefix(context.Background(), domain.PayableKindBooking, "PNRX", "Driver payout:")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment != nil {
		t.Errorf("expected nil payment, got %+v", payment)
	}
}

func TestPaymentRepository_Update_MissingRow(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE payments SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPaymentRepository(db)
	err = repo.Update(context.Background(), &domain.Payment{
		InvoiceID: "INVMISSING",
		Amount:    decimal.NewFromInt(1),
		Timestamp: time.Now(),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestPaymentRepository_Delete(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM payments WHERE invoice_id = \$1`).
		WithArgs("INV1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPaymentRepository(db)
	if err := repo.Delete(context.Background(), "INV1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}
