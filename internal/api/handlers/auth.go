package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/operator"
)

// OperatorLogin checks username/password and issues a controller token
func OperatorLogin(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator accounts not available"})
			return
		}

		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		username := strings.TrimSpace(req.Username)
		op, err := operator.Authenticate(c.Request.Context(), db, username, req.Password)
		if err != nil {
			if errors.Is(err, operator.ErrNotFound) || errors.Is(err, operator.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ttl := time.Duration(cfg.ControllerTokenTTLMinutes) * time.Minute
		token, err := operator.IssueControllerToken(cfg.JWTSecret, op.Username, ttl)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Printf("[AUTH] Controller token issued for %s", op.Username)
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(ttl.Seconds()),
			"operator":   gin.H{"username": op.Username, "display_name": op.DisplayName},
		})
	}
}
