package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carom/internal/api/handlers"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, store handlers.ScoreReader, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", handlers.OperatorLogin(db, cfg))
		}

		v1.GET("/scores/leaderboard", handlers.GetLeaderboard(store))

		tables := v1.Group("/tables")
		{
			tables.GET("", handlers.ListTables)
			tables.GET("/:id", handlers.GetTableState)
			tables.GET("/:id/score", handlers.GetTableScore(store))
			tables.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleTableWebSocket(cfg))
		}
	}
}
