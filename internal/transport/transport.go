package transport

import (
	"github.com/sserbin1/silentbox-cloud-sub000/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(
	bookingHandler *BookingHandler,
	creditsHandler *CreditsHandler,
	deviceHandler *DeviceHandler,
	pricingHandler *PricingHandler,
	boothHandler *BoothHandler,
) *gin.Engine {

	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// API routes
	api := router.Group("/api/v1")
	{
		// Booking routes (storefront)
		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/confirm", bookingHandler.ConfirmBooking)
			bookings.POST("/:id/checkin", bookingHandler.CheckIn)
			bookings.POST("/:id/checkout", bookingHandler.Checkout)
			bookings.DELETE("/:id", bookingHandler.CancelBooking)
		}

		api.GET("/users/:user_id/bookings", bookingHandler.GetUserBookings)

		// Pricing quote
		api.POST("/pricing/quote", pricingHandler.Quote)

		// Credits
		credits := api.Group("/credits")
		{
			credits.GET("/:user_id", creditsHandler.GetBalance)
			credits.GET("/:user_id/history", creditsHandler.GetHistory)
			credits.POST("/purchase", creditsHandler.PurchasePackage)
		}

		// Credit packages on sale
		api.GET("/credit-packages", creditsHandler.GetTenantPackages)

		// Device routes (IoT bridge + operator)
		devices := api.Group("/devices")
		{
			devices.POST("/telemetry", deviceHandler.IngestTelemetry)
			devices.GET("", deviceHandler.ListDevices)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.POST("/:id/lock", deviceHandler.Lock)
			devices.POST("/:id/unlock", deviceHandler.Unlock)
			devices.POST("/:id/sync", deviceHandler.Sync)
		}

		// Admin routes (operator UI)
		admin := api.Group("/admin")
		{
			admin.POST("/credits/adjust", creditsHandler.Adjust)
			admin.GET("/booths/:id/bookings", bookingHandler.GetBoothBookings)

			admin.POST("/booths", boothHandler.CreateBooth)
			admin.GET("/booths", boothHandler.GetTenantBooths)
			admin.GET("/booths/:id", boothHandler.GetBooth)
			admin.PUT("/booths/:id/status", boothHandler.UpdateBoothStatus)
			admin.POST("/devices", deviceHandler.CreateDevice)

			rules := admin.Group("/pricing-rules")
			{
				rules.POST("", pricingHandler.CreateRule)
				rules.GET("", pricingHandler.GetTenantRules)
				rules.GET("/:id", pricingHandler.GetRule)
				rules.PUT("/:id", pricingHandler.UpdateRule)
				rules.DELETE("/:id", pricingHandler.DeleteRule)
			}

			packages := admin.Group("/credit-packages")
			{
				packages.POST("", creditsHandler.CreatePackage)
				packages.GET("", creditsHandler.GetTenantPackages)
				packages.PUT("/:id", creditsHandler.UpdatePackage)
				packages.DELETE("/:id", creditsHandler.DeletePackage)
			}
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": gin.H{"time": "server is running"},
		})
	})

	return router
}
