package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jypsi/cabs/internal/service"
)

// GatewayHandler handles the online payment flow: checkout start and the
// provider's asynchronous callbacks.
type GatewayHandler struct {
	gatewayService *service.GatewayService
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(gatewayService *service.GatewayService) *GatewayHandler {
	return &GatewayHandler{gatewayService: gatewayService}
}

// StartChargeRequest is the HTTP request body for starting a gateway charge.
type StartChargeRequest struct {
	PNR string `json:"pnr"`
}

// StartChargeResponse carries the redirect the customer's browser must post.
type StartChargeResponse struct {
	InvoiceID string            `json:"invoice_id"`
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
}

// CancelChargeRequest is the HTTP request body for a customer cancel.
type CancelChargeRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// CallbackResponse is returned after a callback is absorbed.
type CallbackResponse struct {
	InvoiceID     string `json:"invoice_id"`
	PaymentStatus string `json:"payment_status"`
	PNR           string `json:"pnr"`
	BookingStatus string `json:"booking_status"`
}

// StartCharge handles POST /v1/payments/gateway/start
func (h *GatewayHandler) StartCharge(c *gin.Context) {
	var req StartChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payload, payment, err := h.gatewayService.Start(c.Request.Context(), req.PNR)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StartChargeResponse{
		InvoiceID: payment.InvoiceID,
		URL:       payload.URL,
		Fields:    payload.Fields,
	})
}

// Callback handles POST /v1/payments/gateway/callback. The provider posts an
// encrypted form payload.
func (h *GatewayHandler) Callback(c *gin.Context) {
	payload := c.PostForm("encResp")
	if payload == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing callback payload"})
		return
	}

	booking, payment, err := h.gatewayService.HandleCallback(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CallbackResponse{
		InvoiceID:     payment.InvoiceID,
		PaymentStatus: string(payment.Status),
		PNR:           booking.PNR,
		BookingStatus: string(booking.Status),
	})
}

// Cancel handles POST /v1/payments/gateway/cancel
func (h *GatewayHandler) Cancel(c *gin.Context) {
	var req CancelChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.gatewayService.HandleCancel(c.Request.Context(), req.InvoiceID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
