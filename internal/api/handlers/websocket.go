package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/ws"
)

// HandleTableWebSocket handles pose ingestion and live table events
func HandleTableWebSocket(cfg *config.Config) gin.HandlerFunc {
	return ws.HandleTableWebSocket(cfg)
}
