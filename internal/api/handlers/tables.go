package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carom/internal/game"
	"github.com/playmatatu/carom/internal/models"
	"github.com/playmatatu/carom/internal/ws"
)

// ScoreReader reads stored scores for tables that are not running.
type ScoreReader interface {
	LoadScore(ctx context.Context, tableID string) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]models.TableScore, error)
}

// GetTableScore returns the running score of a table
func GetTableScore(store ScoreReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !game.ValidTableID(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
			return
		}

		if game.Manager != nil {
			if t, ok := game.Manager.GetTable(id); ok {
				snap := t.Snapshot()
				c.JSON(http.StatusOK, gin.H{
					"table_id":    id,
					"score":       snap.Score,
					"shot_active": snap.ShotActive,
				})
				return
			}
		}

		score := 0
		if store != nil {
			s, err := store.LoadScore(c.Request.Context(), id)
			if err != nil {
				log.Printf("[SCORES] load score for %s: %v", id, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			score = s
		}
		if game.Manager != nil {
			if retired, ok := game.Manager.RetiredScore(id); ok && retired > score {
				score = retired
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"table_id":    id,
			"score":       score,
			"shot_active": false,
		})
	}
}

type tableState struct {
	game.TableSnapshot
	ControllerConnected bool `json:"controller_connected"`
	Clients             int  `json:"clients"`
}

// GetTableState returns the full state of a running table
func GetTableState(c *gin.Context) {
	if game.Manager == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not running"})
		return
	}
	t, ok := game.Manager.GetTable(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not running"})
		return
	}
	c.JSON(http.StatusOK, tableState{
		TableSnapshot:       t.Snapshot(),
		ControllerConnected: ws.TableHub.HasController(t.ID),
		Clients:             ws.TableHub.RoomSize(t.ID),
	})
}

// ListTables returns the ids of running tables
func ListTables(c *gin.Context) {
	ids := []string{}
	if game.Manager != nil {
		ids = game.Manager.Tables()
	}
	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{"tables": ids})
}

// GetLeaderboard returns the best stored table scores
func GetLeaderboard(store ScoreReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		rows := []models.TableScore{}
		if store != nil {
			var err error
			rows, err = store.Leaderboard(c.Request.Context(), limit)
			if err != nil {
				log.Printf("[SCORES] leaderboard: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"scores": rows})
	}
}
