package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dispatch-service/internal/auth"
	"dispatch-service/internal/http/middleware"
	"dispatch-service/internal/model"
)

func NewRouter(handler *Handler, parser *auth.Parser, rateLimit int, env string, ping func(context.Context) error) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(rateLimit)

	v1 := router.Group("/v1")

	// Login is limited by client IP; everything else runs the limiter after
	// auth so each authenticated user gets its own bucket.
	v1.POST("/login", limiter.Handle(), handler.login)

	protected := v1.Group("")
	protected.Use(middleware.Auth(parser), limiter.Handle())
	{
		protected.POST("/logout", handler.logout)
		protected.POST("/change-password", handler.changePassword)

		protected.GET("/dispatch-requests", handler.listRequests)
		protected.GET("/dispatch-requests/:id", handler.getRequest)
		protected.POST("/dispatch-requests", handler.createRequest)
		protected.POST("/supervisor/requests/:id/decide",
			middleware.RequireRoles(model.UserRoleSupervisor), handler.supervisorDecide)
		protected.POST("/fleet/requests/:id/decide",
			middleware.RequireRoles(model.UserRoleFleetManager, model.UserRoleAdmin), handler.fleetDecide)

		protected.GET("/trips/:id", handler.getTrip)
		protected.POST("/trips/:id/start", handler.startTrip)
		protected.POST("/trips/:id/end", handler.endTrip)
		protected.POST("/trips/:id/fuel", handler.addFuel)
		protected.POST("/trips/:id/review", handler.reviewTrip)

		protected.GET("/vehicles", handler.listVehicles)
		protected.POST("/vehicles",
			middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleFleetManager), handler.createVehicle)
		protected.PUT("/vehicles/:id",
			middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleFleetManager), handler.updateVehicle)
		protected.POST("/vehicles/:id/assign-driver",
			middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleFleetManager), handler.assignDriver)

		protected.GET("/vehicles/:id/maintenance-records", handler.listMaintenanceRecords)
		protected.POST("/vehicles/:id/maintenance-records",
			middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleFleetManager), handler.addMaintenanceRecord)
		protected.GET("/vehicles/:id/invoices", handler.listInvoices)
		protected.POST("/vehicles/:id/invoices",
			middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleFleetManager), handler.addInvoice)
	}

	return router
}
