package ws

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/operator"
)

// HandleTableWebSocket upgrades a connection to a table. A valid controller
// token in ?token= attaches the connection as the table's cue controller;
// without a token the connection only watches.
func HandleTableWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tables not available"})
			return
		}

		table, err := game.Manager.GetOrCreateTable(c.Request.Context(), c.Param("id"))
		if errors.Is(err, game.ErrInvalidTableID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
			return
		}
		if err != nil {
			log.Printf("[WS] open table %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		role := RoleSpectator
		operatorName := ""
		if token := c.Query("token"); token != "" {
			claims, err := operator.ParseControllerToken(cfg.JWTSecret, token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid controller token"})
				return
			}
			role = RoleController
			operatorName = claims.Operator
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := newClient(TableHub, conn, table, role, operatorName)
		TableHub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
