package router

import (
	"github.com/gin-gonic/gin"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/config"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/handlers"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/middleware"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	bookingHandler *handlers.BookingHandler,
	workerHandler *handlers.WorkerHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokenManager))

	bookings := api.Group("/bookings")
	{
		bookings.POST("", bookingHandler.Create)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.POST("/:id/confirm", bookingHandler.Confirm)
		bookings.POST("/:id/assign", bookingHandler.Assign)
		bookings.POST("/:id/advance", bookingHandler.Advance)
		bookings.GET("/:id/reassignments", bookingHandler.History)
	}

	// Cancellations and reassignments are the expensive paths; keep them
	// behind the rate limiter.
	limited := api.Group("/bookings")
	limited.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		limited.POST("/:id/cancel", bookingHandler.Cancel)
		limited.POST("/:id/reassign", bookingHandler.Reassign)
	}

	workers := api.Group("/workers")
	{
		workers.POST("/:id/emergency", workerHandler.ReportEmergency)
		workers.POST("/:id/availability", workerHandler.SetAvailability)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/manual-assignments", adminHandler.ListManualAssignments)
		admin.POST("/bookings/:id/assign", adminHandler.ManualAssign)
	}

	return r
}
