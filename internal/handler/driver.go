package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/service"
)

// DriverHandler handles HTTP requests for the driver and vehicle roster.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// CreateDriverRequest is the HTTP request body for registering a driver.
type CreateDriverRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// CreateVehicleRequest is the HTTP request body for registering a vehicle.
type CreateVehicleRequest struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	Category string `json:"category,omitempty"`
	DriverID string `json:"driver_id,omitempty"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	Category string `json:"category,omitempty"`
	DriverID string `json:"driver_id,omitempty"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{ID: d.ID, Name: d.Name, Mobile: d.Mobile}
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:       v.ID,
		Name:     v.Name,
		Number:   v.Number,
		Category: v.Category,
		DriverID: v.DriverID,
	}
}

// CreateDriver handles POST /v1/drivers
func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.CreateDriver(c.Request.Context(), service.CreateDriverRequest{
		Name:   req.Name,
		Mobile: req.Mobile,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetAllDrivers handles GET /v1/drivers
func (h *DriverHandler) GetAllDrivers(c *gin.Context) {
	drivers, err := h.driverService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	c.JSON(http.StatusOK, response)
}

// CreateVehicle handles POST /v1/vehicles
func (h *DriverHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.driverService.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		Name:     req.Name,
		Number:   req.Number,
		Category: req.Category,
		DriverID: req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// GetAllVehicles handles GET /v1/vehicles
func (h *DriverHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.driverService.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}
	c.JSON(http.StatusOK, response)
}
