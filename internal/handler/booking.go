package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	paymentService *service.PaymentService
	invoiceService *service.InvoiceService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, paymentService *service.PaymentService, invoiceService *service.InvoiceService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		paymentService: paymentService,
		invoiceService: invoiceService,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	TravelAt        string `json:"travel_at"` // RFC 3339
	VehicleCategory string `json:"vehicle_category"`
	Type            string `json:"type,omitempty"` // ONE_WAY, ROUND_TRIP
	Passengers      int    `json:"passengers,omitempty"`
	PickupPoint     string `json:"pickup_point,omitempty"`
	ExtraInfo       string `json:"extra_info,omitempty"`
	CustomerName    string `json:"customer_name"`
	CustomerMobile  string `json:"customer_mobile,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
}

// AssignVehicleRequest is the HTTP request body for assigning a vehicle.
type AssignVehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// FareOverrideRequest is the HTTP request body for a fare override.
type FareOverrideRequest struct {
	Markup   int64 `json:"markup"`
	Discount int64 `json:"discount"`
}

// DriverPayoutRequest is the HTTP request body for settling a driver payout.
type DriverPayoutRequest struct {
	CreatedBy string `json:"created_by,omitempty"`
}

// FareResponse is the fare breakdown within a booking response.
type FareResponse struct {
	Price        int64            `json:"price"`
	DriverCharge int64            `json:"driver_charge"`
	Taxes        []domain.TaxLine `json:"taxes,omitempty"`
	TaxTotal     int64            `json:"tax_total"`
	Markup       int64            `json:"markup"`
	Discount     int64            `json:"discount"`
	Total        int64            `json:"total"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	PNR             string       `json:"pnr"`
	Source          string       `json:"source"`
	Destination     string       `json:"destination"`
	TravelAt        string       `json:"travel_at"`
	VehicleCategory string       `json:"vehicle_category"`
	Type            string       `json:"type"`
	Passengers      int          `json:"passengers,omitempty"`
	PickupPoint     string       `json:"pickup_point,omitempty"`
	CustomerName    string       `json:"customer_name"`
	CustomerMobile  string       `json:"customer_mobile,omitempty"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	Status          string       `json:"status"`
	TotalFare       int64        `json:"total_fare"`
	Fare            FareResponse `json:"fare"`
	Distance        int64        `json:"distance,omitempty"`
	PaymentDone     string       `json:"payment_done"`
	PaymentDue      int64        `json:"payment_due"`
	PaymentStatus   string       `json:"payment_status"`
	Revenue         string       `json:"revenue"`
	LastPaymentDate string       `json:"last_payment_date,omitempty"`
	VehicleID       string       `json:"vehicle_id,omitempty"`
	DriverID        string       `json:"driver_id,omitempty"`
	DriverPaid      bool         `json:"driver_paid"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		PNR:             b.PNR,
		Source:          b.Source,
		Destination:     b.Destination,
		TravelAt:        b.TravelAt.Format(time.RFC3339),
		VehicleCategory: b.VehicleCategory,
		Type:            string(b.Type),
		Passengers:      b.Passengers,
		PickupPoint:     b.PickupPoint,
		CustomerName:    b.CustomerName,
		CustomerMobile:  b.CustomerMobile,
		CustomerEmail:   b.CustomerEmail,
		Status:          string(b.Status),
		TotalFare:       b.TotalFare,
		Fare: FareResponse{
			Price:        b.Fare.Price,
			DriverCharge: b.Fare.DriverCharge,
			Taxes:        b.Fare.Taxes.Lines,
			TaxTotal:     b.Fare.Taxes.Total,
			Markup:       b.Fare.Markup,
			Discount:     b.Fare.Discount,
			Total:        b.Fare.Total,
		},
		Distance:      b.Distance,
		PaymentDone:   b.PaymentDone.String(),
		PaymentDue:    b.PaymentDue,
		PaymentStatus: string(b.PaymentStatus),
		Revenue:       b.Revenue.String(),
		VehicleID:     b.VehicleID,
		DriverID:      b.DriverID,
		DriverPaid:    b.DriverPaid,
	}
	if !b.LastPaymentDate.IsZero() {
		resp.LastPaymentDate = b.LastPaymentDate.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	travelAt, err := time.Parse(time.RFC3339, req.TravelAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "travel_at must be RFC 3339"})
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), service.CreateBookingRequest{
		Source:          req.Source,
		Destination:     req.Destination,
		TravelAt:        travelAt,
		VehicleCategory: req.VehicleCategory,
		Type:            domain.BookingType(req.Type),
		Passengers:      req.Passengers,
		PickupPoint:     req.PickupPoint,
		ExtraInfo:       req.ExtraInfo,
		CustomerName:    req.CustomerName,
		CustomerMobile:  req.CustomerMobile,
		CustomerEmail:   req.CustomerEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:pnr
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// GetAll handles GET /v1/bookings
func (h *BookingHandler) GetAll(c *gin.Context) {
	bookings, err := h.bookingService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, response)
}

// ConfirmBooking handles POST /v1/bookings/:pnr/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookingService.Confirm(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// DeclineBooking handles POST /v1/bookings/:pnr/decline
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	booking, err := h.bookingService.Decline(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// AssignVehicle handles POST /v1/bookings/:pnr/vehicle
func (h *BookingHandler) AssignVehicle(c *gin.Context) {
	var req AssignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.AssignVehicle(c.Request.Context(), c.Param("pnr"), req.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ApplyFareOverride handles POST /v1/bookings/:pnr/fare-override
func (h *BookingHandler) ApplyFareOverride(c *gin.Context) {
	var req FareOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.ApplyFareOverride(c.Request.Context(), service.FareOverrideRequest{
		PNR:      c.Param("pnr"),
		Markup:   req.Markup,
		Discount: req.Discount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// PayDriver handles POST /v1/bookings/:pnr/driver-payout
func (h *BookingHandler) PayDriver(c *gin.Context) {
	var req DriverPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.PayDriver(c.Request.Context(), c.Param("pnr"), req.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetInvoice handles GET /v1/bookings/:pnr/invoice
func (h *BookingHandler) GetInvoice(c *gin.Context) {
	pdf, err := h.invoiceService.Render(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice-`+c.Param("pnr")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListPayments handles GET /v1/bookings/:pnr/payments
func (h *BookingHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, toPaymentResponse(p))
	}
	c.JSON(http.StatusOK, response)
}
