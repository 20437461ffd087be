package handler

import (
	"context"
	"time"

	"spreadwatch/internal/curve"
	"spreadwatch/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// defaultHistoryDays applies when the days query param is absent or
// unparseable; the store enforces the hard 365 cap.
const defaultHistoryDays = 90

type HistoryReader interface {
	History(ctx context.Context, days int) ([]domain.SpreadSnapshot, error)
}

type SnapshotRunner interface {
	RunDaily(ctx context.Context, now time.Time) (domain.SnapshotRunResult, error)
}

// StatsReader is optional; readers that also implement it get the stats
// route registered.
type StatsReader interface {
	Stats(ctx context.Context, days int) (curve.SpreadStats, error)
}

type Handler struct {
	tracer  trace.Tracer
	history HistoryReader
	runner  SnapshotRunner
}

func New(tracer trace.Tracer, history HistoryReader, runner SnapshotRunner) *Handler {
	return &Handler{
		tracer:  tracer,
		history: history,
		runner:  runner,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// The series is aggregate market data, open to any origin.
	r.Use(cors.Default())

	r.GET("/health", h.Health)
	r.GET("/api/history", h.GetHistory)
	r.POST("/api/snapshot/run", h.TriggerSnapshotRun)

	if _, ok := h.history.(StatsReader); ok {
		r.GET("/api/stats", h.GetStats)
	}
}
