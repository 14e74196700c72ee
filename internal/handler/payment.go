package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/service"
)

// verifyPermissionHeader marks a request as carrying the verify-payment
// permission. An upstream auth proxy strips and re-adds it.
const verifyPermissionHeader = "X-Verify-Payment"

// PaymentHandler handles HTTP requests for manual payments and the
// accounting audit trail.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentRequest is the HTTP request body for recording a payment.
type RecordPaymentRequest struct {
	PNR       string `json:"pnr"`
	Amount    string `json:"amount"`
	Type      int    `json:"type"` // 1 income, -1 expenditure
	Mode      string `json:"mode"` // CASH, BANK_TRANSFER
	Comment   string `json:"comment,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// UpdatePaymentRequest is the HTTP request body for editing a payment.
type UpdatePaymentRequest struct {
	Amount  string `json:"amount"`
	Type    int    `json:"type"`
	Mode    string `json:"mode"`
	Comment string `json:"comment,omitempty"`
}

// UpdateAccountsRequest is the HTTP request body for the accounts audit
// fields.
type UpdateAccountsRequest struct {
	Verified  bool   `json:"verified"`
	Received  string `json:"received"`
	Comment   string `json:"comment,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	InvoiceID   string `json:"invoice_id"`
	PNR         string `json:"pnr"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Type        int    `json:"type"`
	Mode        string `json:"mode"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Timestamp   string `json:"timestamp"`

	AccountsVerified   bool   `json:"accounts_verified"`
	AccountsReceived   string `json:"accounts_received"`
	AccountsDue        string `json:"accounts_due"`
	AccountsComment    string `json:"accounts_comment,omitempty"`
	AccountsVerifiedAt string `json:"accounts_verified_at,omitempty"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		InvoiceID:        p.InvoiceID,
		PNR:              p.PayableID,
		Amount:           p.Amount.String(),
		Currency:         p.Currency,
		Type:             int(p.Type),
		Mode:             string(p.Mode),
		Status:           string(p.Status),
		ReferenceID:      p.ReferenceID,
		Comment:          p.Comment,
		Timestamp:        p.Timestamp.Format(time.RFC3339),
		AccountsVerified: p.AccountsVerified,
		AccountsReceived: p.AccountsReceived.String(),
		AccountsDue:      p.AccountsDue.String(),
		AccountsComment:  p.AccountsComment,
	}
	if !p.AccountsVerifiedAt.IsZero() {
		resp.AccountsVerifiedAt = p.AccountsVerifiedAt.Format(time.RFC3339)
	}
	return resp
}

// RecordPayment handles POST /v1/payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
		return
	}

	payment, err := h.paymentService.Record(c.Request.Context(), service.RecordPaymentRequest{
		PNR:       req.PNR,
		Amount:    amount,
		Type:      domain.PaymentType(req.Type),
		Mode:      domain.PaymentMode(req.Mode),
		Comment:   req.Comment,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:invoice_id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// UpdatePayment handles PUT /v1/payments/:invoice_id
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
		return
	}

	payment, err := h.paymentService.Update(c.Request.Context(), service.UpdatePaymentRequest{
		InvoiceID: c.Param("invoice_id"),
		Amount:    amount,
		Type:      domain.PaymentType(req.Type),
		Mode:      domain.PaymentMode(req.Mode),
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// DeletePayment handles DELETE /v1/payments/:invoice_id
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	if err := h.paymentService.Delete(c.Request.Context(), c.Param("invoice_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateAccounts handles PUT /v1/payments/:invoice_id/accounts
func (h *PaymentHandler) UpdateAccounts(c *gin.Context) {
	var req UpdateAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	received := decimal.Zero
	if req.Received != "" {
		var err error
		received, err = decimal.NewFromString(req.Received)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid received amount"})
			return
		}
	}

	payment, err := h.paymentService.UpdateAccounts(c.Request.Context(), service.UpdateAccountsRequest{
		InvoiceID: c.Param("invoice_id"),
		Verified:  req.Verified,
		Received:  received,
		Comment:   req.Comment,
		UpdatedBy: req.UpdatedBy,
		Permitted: c.GetHeader(verifyPermissionHeader) == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
