package job

import (
	"context"
	"log"
	"time"

	"spreadwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type SnapshotRunner interface {
	RunDaily(ctx context.Context, now time.Time) (domain.SnapshotRunResult, error)
}

// SnapshotJob triggers one pipeline pass per day at a fixed UTC hour. The
// pipeline itself owns idempotence (upsert on date), so an extra run on boot
// is safe.
type SnapshotJob struct {
	tracer  trace.Tracer
	runner  SnapshotRunner
	hourUTC int
}

func NewSnapshotJob(tracer trace.Tracer, runner SnapshotRunner, hourUTC int) *SnapshotJob {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}
	return &SnapshotJob{tracer: tracer, runner: runner, hourUTC: hourUTC}
}

// Start blocks until ctx is cancelled.
func (j *SnapshotJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Snapshot job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)

	for {
		next := nextRunAfter(time.Now().UTC(), j.hourUTC)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *SnapshotJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "snapshot-job.run-once")
	defer span.End()

	result, err := j.runner.RunDaily(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Snapshot job error: %v", err)
		return
	}
	if !result.Computed {
		log.Printf("Snapshot job finished without a snapshot: %s", result.Reason)
		return
	}
	log.Printf("Snapshot job complete date=%s spread=%.4f markets=%d warnings=%d",
		result.Snapshot.Date, result.Snapshot.TermSpread, result.Snapshot.MarketsCount, len(result.Warnings))
}

// nextRunAfter returns the next hourUTC:00 boundary strictly after now.
func nextRunAfter(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
