package router

import (
	"github.com/gin-gonic/gin"

	"github.com/5-VED/nest-notification-svc/internal/api/handlers/notification"
)

// New builds the admin REST engine, grouped under /api the way the
// teacher groups its notify routes.
func New(handler *notification.Handler) *gin.Engine {
	e := gin.New()
	e.Use(gin.Logger())
	e.Use(gin.Recovery())

	api := e.Group("/api")

	api.POST("/notifications", handler.Send)
	api.POST("/notifications/bulk", handler.SendBulk)
	api.GET("/notifications/:id", handler.Status)
	api.POST("/notifications/retry", handler.RetryFailed)

	api.PUT("/users/:userId/preferences", handler.UpdatePreferences)
	api.POST("/users/:userId/device-tokens", handler.RegisterDeviceToken)
	api.DELETE("/users/:userId/device-tokens/:token", handler.DeactivateDeviceToken)

	api.POST("/templates/preview", handler.PreviewTemplate)

	return e
}
