package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TriggerSnapshotRun godoc
// @Summary      Run the daily snapshot pipeline once
// @Description  Fetches markets, computes the term spread, and upserts today's snapshot
// @Tags         snapshot
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/snapshot/run [post]
func (h *Handler) TriggerSnapshotRun(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-snapshot-run")
	defer span.End()

	result, err := h.runner.RunDaily(ctx, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Too few live maturities is informational, not a failure.
	if !result.Computed {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"computed": false,
			"reason":   result.Reason,
			"markets":  0,
			"warnings": result.Warnings,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"date":        result.Snapshot.Date,
		"term_spread": result.Snapshot.TermSpread,
		"front_apy":   result.Snapshot.FrontMonthAPY,
		"back_apy":    result.Snapshot.BackMonthAPY,
		"markets":     result.Snapshot.MarketsCount,
		"warnings":    result.Warnings,
	})
}
