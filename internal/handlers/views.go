package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ViewCounter counts stored ticket views.
type ViewCounter interface {
	CountViews(ctx context.Context, from, to time.Time, ticketID *int64) (int64, error)
}

// parseRFC3339 parses an RFC3339 timestamp and normalizes it to UTC.
func parseRFC3339(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// RegisterViewRoutes registers the stored-views query endpoint.
//
// GET /views/count?from=...&to=...[&ticket_id=...]
// - Requires X-API-Key
// - Returns the number of stored views for the window [from,to)
func RegisterViewRoutes(r gin.IRoutes, st ViewCounter) {
	r.GET("/views/count", func(c *gin.Context) {
		fromStr := c.Query("from")
		toStr := c.Query("to")

		if fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from, to are required"})
			return
		}

		from, err := parseRFC3339(fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := parseRFC3339(toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		// Validate window to avoid confusing results.
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		var ticketID *int64
		if raw := c.Query("ticket_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id must be a positive integer"})
				return
			}
			ticketID = &id
		}

		count, err := st.CountViews(c.Request.Context(), from, to, ticketID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}

		resp := gin.H{
			"from":  from.Format(time.RFC3339),
			"to":    to.Format(time.RFC3339),
			"count": count,
		}
		if ticketID != nil {
			resp["ticket_id"] = *ticketID
		}
		c.JSON(http.StatusOK, resp)
	})
}
