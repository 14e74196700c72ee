package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/jypsi/cabs/internal/handler"
	"github.com/jypsi/cabs/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	GatewayHandler *handler.GatewayHandler
	RateHandler    *handler.RateHandler
	DriverHandler  *handler.DriverHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.GetAll)
			bookings.GET("/:pnr", deps.BookingHandler.GetBooking)
			bookings.POST("/:pnr/confirm", deps.BookingHandler.ConfirmBooking)
			bookings.POST("/:pnr/decline", deps.BookingHandler.DeclineBooking)
			bookings.POST("/:pnr/vehicle", deps.BookingHandler.AssignVehicle)
			bookings.POST("/:pnr/fare-override", deps.BookingHandler.ApplyFareOverride)
			bookings.POST("/:pnr/driver-payout", deps.BookingHandler.PayDriver)
			bookings.GET("/:pnr/payments", deps.BookingHandler.ListPayments)
			bookings.GET("/:pnr/invoice", deps.BookingHandler.GetInvoice)
		}

		// Payment routes. The gateway group comes first so gin does not
		// treat "gateway" as an invoice id.
		payments := v1.Group("/payments")
		{
			gw := payments.Group("/gateway")
			{
				gw.POST("/start", deps.GatewayHandler.StartCharge)
				gw.POST("/callback", deps.GatewayHandler.Callback)
				gw.POST("/cancel", deps.GatewayHandler.Cancel)
			}

			payments.POST("", deps.PaymentHandler.RecordPayment)
			payments.GET("/:invoice_id", deps.PaymentHandler.GetPayment)
			payments.PUT("/:invoice_id", deps.PaymentHandler.UpdatePayment)
			payments.DELETE("/:invoice_id", deps.PaymentHandler.DeletePayment)
			payments.PUT("/:invoice_id/accounts", deps.PaymentHandler.UpdateAccounts)
		}

		// Rate card routes.
		rates := v1.Group("/rates")
		{
			rates.POST("", deps.RateHandler.CreateRate)
			rates.GET("", deps.RateHandler.GetAll)
			rates.GET("/quote", deps.RateHandler.Quote)
			rates.POST("/categories", deps.RateHandler.CreateCategory)
		}

		// Driver and vehicle roster routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.CreateDriver)
			drivers.GET("", deps.DriverHandler.GetAllDrivers)
		}
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.DriverHandler.CreateVehicle)
			vehicles.GET("", deps.DriverHandler.GetAllVehicles)
		}
	}

	return router
}
