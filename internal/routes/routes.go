package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"saludclara-server/internal/config"
	"saludclara-server/internal/handlers"
	"saludclara-server/internal/middleware"
	"saludclara-server/internal/notify"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	// Outbound email: SendGrid when configured, logging stub otherwise
	dispatcher := notify.NewDispatcher(notify.NewSender(cfg.Mailer, log))
	appointmentHandler := handlers.NewAppointmentHandler(db, dispatcher, log)

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		appointmentRoutes := private.Group("/appointments")
		{
			// Owner-scoped lifecycle operations; ownership enforced in handlers
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/owner/:id", appointmentHandler.GetAppointmentsForOwner)
			appointmentRoutes.GET("/owner/:id/stats", appointmentHandler.GetAppointmentStats)
			appointmentRoutes.PUT("/:code/cancel", appointmentHandler.CancelAppointment)
		}
	}

	// API info at the root, handy for uptime probes and the curious
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "SaludClara API",
			"endpoints": gin.H{
				"appointments": []string{
					"POST /api/v1/appointments",
					"GET /api/v1/appointments/owner/:id",
					"GET /api/v1/appointments/owner/:id/stats",
					"PUT /api/v1/appointments/:code/cancel",
				},
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
