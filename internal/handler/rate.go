package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/service"
)

// RateHandler handles HTTP requests for the rate card and fare quotes.
type RateHandler struct {
	rateService *service.RateService
	fareService *service.FareService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateService *service.RateService, fareService *service.FareService) *RateHandler {
	return &RateHandler{
		rateService: rateService,
		fareService: fareService,
	}
}

// CreateRateRequest is the HTTP request body for creating a rate.
type CreateRateRequest struct {
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	VehicleCategory string `json:"vehicle_category"`

	OnewayPrice        int64 `json:"oneway_price"`
	OnewayDistance     int64 `json:"oneway_distance,omitempty"`
	OnewayDriverCharge int64 `json:"oneway_driver_charge,omitempty"`

	RoundTripPrice        int64 `json:"roundtrip_price,omitempty"`
	RoundTripDistance     int64 `json:"roundtrip_distance,omitempty"`
	RoundTripDriverCharge int64 `json:"roundtrip_driver_charge,omitempty"`
}

// RateResponse is the HTTP representation of a rate.
type RateResponse struct {
	ID              string `json:"id"`
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	Code            string `json:"code"`
	VehicleCategory string `json:"vehicle_category"`

	OnewayPrice        int64 `json:"oneway_price"`
	OnewayDistance     int64 `json:"oneway_distance"`
	OnewayDriverCharge int64 `json:"oneway_driver_charge"`

	RoundTripPrice        int64 `json:"roundtrip_price"`
	RoundTripDistance     int64 `json:"roundtrip_distance"`
	RoundTripDriverCharge int64 `json:"roundtrip_driver_charge"`
}

// QuoteResponse is the HTTP representation of a fare quote.
type QuoteResponse struct {
	Fare     FareResponse `json:"fare"`
	Distance int64        `json:"distance,omitempty"`
}

func toRateResponse(r *domain.Rate) RateResponse {
	return RateResponse{
		ID:                    r.ID,
		Source:                r.Source,
		Destination:           r.Destination,
		Code:                  r.Code,
		VehicleCategory:       r.VehicleCategory,
		OnewayPrice:           r.OnewayPrice,
		OnewayDistance:        r.OnewayDistance,
		OnewayDriverCharge:    r.OnewayDriverCharge,
		RoundTripPrice:        r.RoundTripPrice,
		RoundTripDistance:     r.RoundTripDistance,
		RoundTripDriverCharge: r.RoundTripDriverCharge,
	}
}

// CreateRate handles POST /v1/rates
func (h *RateHandler) CreateRate(c *gin.Context) {
	var req CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rate, err := h.rateService.CreateRate(c.Request.Context(), service.CreateRateRequest{
		Source:                req.Source,
		Destination:           req.Destination,
		VehicleCategory:       req.VehicleCategory,
		OnewayPrice:           req.OnewayPrice,
		OnewayDistance:        req.OnewayDistance,
		OnewayDriverCharge:    req.OnewayDriverCharge,
		RoundTripPrice:        req.RoundTripPrice,
		RoundTripDistance:     req.RoundTripDistance,
		RoundTripDriverCharge: req.RoundTripDriverCharge,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRateResponse(rate))
}

// GetAll handles GET /v1/rates
func (h *RateHandler) GetAll(c *gin.Context) {
	rates, err := h.rateService.ListRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RateResponse, 0, len(rates))
	for _, r := range rates {
		response = append(response, toRateResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// CreateCategoryRequest is the HTTP request body for creating a vehicle
// category.
type CreateCategoryRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	TariffPerKM      int64  `json:"tariff_per_km,omitempty"`
	TariffAfterHours int64  `json:"tariff_after_hours,omitempty"`
}

// CategoryResponse is the HTTP representation of a vehicle category.
type CategoryResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	TariffPerKM      int64  `json:"tariff_per_km"`
	TariffAfterHours int64  `json:"tariff_after_hours"`
}

// CreateCategory handles POST /v1/rates/categories
func (h *RateHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	category, err := h.rateService.CreateCategory(c.Request.Context(), service.CreateCategoryRequest{
		Name:             req.Name,
		Description:      req.Description,
		TariffPerKM:      req.TariffPerKM,
		TariffAfterHours: req.TariffAfterHours,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CategoryResponse{
		ID:               category.ID,
		Name:             category.Name,
		Description:      category.Description,
		TariffPerKM:      category.TariffPerKM,
		TariffAfterHours: category.TariffAfterHours,
	})
}

// Quote handles GET /v1/rates/quote
func (h *RateHandler) Quote(c *gin.Context) {
	quote, err := h.fareService.Quote(c.Request.Context(), service.QuoteRequest{
		Source:          c.Query("source"),
		Destination:     c.Query("destination"),
		VehicleCategory: c.Query("vehicle_category"),
		Type:            tripType(c.Query("type")),
		At:              time.Now(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		Fare: FareResponse{
			Price:        quote.Fare.Price,
			DriverCharge: quote.Fare.DriverCharge,
			Taxes:        quote.Fare.Taxes.Lines,
			TaxTotal:     quote.Fare.Taxes.Total,
			Markup:       quote.Fare.Markup,
			Discount:     quote.Fare.Discount,
			Total:        quote.Fare.Total,
		},
		Distance: quote.Distance,
	})
}

func tripType(s string) domain.BookingType {
	if s == "" {
		return domain.BookingTypeOneWay
	}
	return domain.BookingType(s)
}
