package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cinewave/watchparty/internal/service"
)

func SetupRouter(sessionController *SessionController, coordinator *service.Coordinator) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		stats := coordinator.Stats(ctx.Request.Context())
		ctx.JSON(200, gin.H{
			"status":      "ok",
			"connections": stats.Connections,
			"rooms":       stats.Rooms,
			"activeCalls": stats.ActiveCalls,
			"uptime":      stats.UptimeSec,
		})
	})

	if sessionController != nil {
		router.GET("/ws", sessionController.Session)
	}

	return router
}
