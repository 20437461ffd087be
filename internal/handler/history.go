package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetHistory godoc
// @Summary      Get the stored term-spread series
// @Description  Returns daily spread snapshots in ascending date order
// @Tags         history
// @Produce      json
// @Param        days  query  int  false  "Number of most recent days (default 90, max 365)"  default(90)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	days := defaultHistoryDays
	if d := c.Query("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n >= 0 {
			days = n
		}
	}
	span.SetAttributes(attribute.Int("days", days))

	snapshots, err := h.history.History(ctx, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(snapshots),
		"data":    snapshots,
	})
}
