package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/ticket-view-sync/internal/models"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunHistory reads the append-only poll history. runstate.Tracker
// implements it.
type RunHistory interface {
	History(ctx context.Context, limit int) ([]models.RunState, error)
	Latest(ctx context.Context) (models.RunState, bool, error)
}

// RegisterRunRoutes registers the run-history endpoints.
//
// GET /runs?limit=N  newest first, default 20, capped at 200
// GET /runs/latest   newest run, 404 before the first cycle
func RegisterRunRoutes(r gin.IRoutes, runs RunHistory) {
	r.GET("/runs", func(c *gin.Context) {
		limit := defaultRunsLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxRunsLimit)
		}

		list, err := runs.History(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		if list == nil {
			list = []models.RunState{}
		}
		c.JSON(http.StatusOK, gin.H{"runs": list})
	})

	r.GET("/runs/latest", func(c *gin.Context) {
		run, ok, err := runs.Latest(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded yet"})
			return
		}
		c.JSON(http.StatusOK, run)
	})
}
