package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1.
// Всё, кроме health-check и WebSocket дашборда, закрыто API-ключом.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// WebSocket для дашборда (команды карты, оверлей, таймлайн)
	api.GET("/ws/dashboard", h.dashboardWS)

	protected := api.Group("")
	protected.Use(APIKeyAuthMiddleware(h.cfg, h.logger))

	// Маршруты для управления инцидентами (CRUD + тревоги)
	incidents := protected.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/stats", h.getStats)
		incidents.GET("/active", h.listActive)
		incidents.POST("/ingest", h.ingestBatch)
		incidents.POST("/resolve-all", h.resolveAll)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id", h.updateIncident)
		incidents.POST("/:id/resolve", h.resolveIncident)
	}

	// Маршруты оверлея тревоги
	overlay := protected.Group("/overlay")
	{
		overlay.GET("", h.getOverlay)
		overlay.POST("/dismiss", h.dismissOverlay)
	}

	// Маршруты управления таймлайном
	timeline := protected.Group("/timeline")
	{
		timeline.GET("", h.getTimeline)
		timeline.GET("/bounds", h.getTimelineBounds)
		timeline.POST("/play", h.playTimeline)
		timeline.POST("/pause", h.pauseTimeline)
		timeline.POST("/scrub", h.scrubTimeline)
		timeline.POST("/drag", h.dragTimeline)
	}
}
