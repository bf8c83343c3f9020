package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"hail/internal/handler"
	"hail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler      *handler.RideHandler
	DriverHandler    *handler.DriverHandler
	PassengerHandler *handler.PassengerHandler
	AdminHandler     *handler.AdminHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Quote route. Pure pricing, no assignment side effects.
		v1.POST("/quotes", deps.RideHandler.Quote)

		// Passenger routes.
		passengers := v1.Group("/passengers")
		{
			passengers.POST("", deps.PassengerHandler.Register)
			passengers.GET("/:id", deps.PassengerHandler.GetPassenger)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/propose-fare", deps.RideHandler.ProposeFare)
			rides.POST("/:id/counter-response", deps.RideHandler.CounterResponse)
			rides.POST("/:id/respond", deps.RideHandler.RespondToOffer)
			rides.POST("/:id/advance", deps.RideHandler.AdvanceStatus)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PUT("/:id/availability", deps.DriverHandler.SetAvailability)
			drivers.PUT("/:id/location", deps.DriverHandler.UpdateLocation)
		}

		// Operator routes.
		admin := v1.Group("/admin")
		{
			admin.GET("/pricing", deps.AdminHandler.GetPricing)
			admin.PUT("/pricing", deps.AdminHandler.UpdatePricing)
			admin.POST("/coupons", deps.AdminHandler.CreateCoupon)
			admin.GET("/coupons/:code", deps.AdminHandler.GetCoupon)
		}
	}

	return router
}
