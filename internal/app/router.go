package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/domain"
	"fleet/internal/handler"
	"fleet/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	VehicleHandler *handler.VehicleHandler
	BookingHandler *handler.BookingHandler
	TripHandler    *handler.TripHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	JWTSecret      string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authed := middleware.Authenticate(deps.JWTSecret)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Auth routes.
		auth := v1.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/refresh", deps.AuthHandler.Refresh)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles", authed)
		{
			vehicles.POST("", middleware.Authorize(domain.RoleVehicleOwner), deps.VehicleHandler.CreateVehicle)
			vehicles.GET("", deps.VehicleHandler.GetAllVehicles)
			vehicles.GET("/:id", deps.VehicleHandler.GetVehicle)
			vehicles.PUT("/:id", middleware.Authorize(domain.RoleVehicleOwner), deps.VehicleHandler.UpdateVehicle)
			vehicles.DELETE("/:id", middleware.Authorize(domain.RoleVehicleOwner, domain.RoleAdmin), deps.VehicleHandler.DeleteVehicle)
			vehicles.POST("/:id/drivers", middleware.Authorize(domain.RoleDriver), deps.VehicleHandler.RegisterDriver)
		}

		// Booking routes.
		bookings := v1.Group("/bookings", authed)
		{
			bookings.POST("", middleware.Authorize(domain.RoleCustomer), deps.BookingHandler.CreateBooking)
			bookings.GET("", middleware.Authorize(domain.RoleAdmin), deps.BookingHandler.GetAllBookings)
			bookings.GET("/my-bookings", middleware.Authorize(domain.RoleCustomer), deps.BookingHandler.GetMyBookings)
			bookings.GET("/owner/bookings", middleware.Authorize(domain.RoleVehicleOwner), deps.BookingHandler.GetOwnerBookings)
			bookings.GET("/driver/bookings", middleware.Authorize(domain.RoleDriver), deps.BookingHandler.GetDriverBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.PUT("/:id", middleware.Authorize(domain.RoleVehicleOwner), deps.BookingHandler.UpdateBooking)
			bookings.PUT("/:id/cancel", middleware.Authorize(domain.RoleCustomer), deps.BookingHandler.CancelBooking)
			bookings.PUT("/:id/start", middleware.Authorize(domain.RoleDriver), deps.BookingHandler.StartTrip)
			bookings.PUT("/:id/complete", middleware.Authorize(domain.RoleDriver), deps.BookingHandler.CompleteTrip)
		}

		// Trip routes.
		trips := v1.Group("/trips", authed)
		{
			trips.POST("", middleware.Authorize(domain.RoleVehicleOwner), deps.TripHandler.CreateTrip)
			trips.GET("", middleware.Authorize(domain.RoleAdmin), deps.TripHandler.GetAllTrips)
			trips.GET("/summary", deps.TripHandler.GetSummary)
			trips.GET("/driver/trips", middleware.Authorize(domain.RoleDriver), deps.TripHandler.GetDriverTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.PUT("/:id", middleware.Authorize(domain.RoleDriver), deps.TripHandler.UpdateTrip)
			trips.PUT("/:id/start", middleware.Authorize(domain.RoleDriver), deps.TripHandler.StartTrip)
			trips.PUT("/:id/complete", middleware.Authorize(domain.RoleDriver), deps.TripHandler.CompleteTrip)
			trips.PUT("/:id/cancel", middleware.Authorize(domain.RoleAdmin), deps.TripHandler.CancelTrip)
		}
	}

	return router
}
