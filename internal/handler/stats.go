package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetStats godoc
// @Summary      Summarize the trailing term-spread series
// @Description  Mean, dispersion and smoothed level of the daily spread
// @Tags         history
// @Produce      json
// @Param        days  query  int  false  "Trailing window in days (default 90, max 365)"  default(90)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	reader, ok := h.history.(StatsReader)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "stats not available"})
		return
	}

	days := defaultHistoryDays
	if d := c.Query("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n >= 0 {
			days = n
		}
	}
	span.SetAttributes(attribute.Int("days", days))

	stats, err := reader.Stats(ctx, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
