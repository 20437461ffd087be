package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"spreadwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("job-test")

type runnerStub struct {
	calls  int
	result domain.SnapshotRunResult
	err    error
}

func (s *runnerStub) RunDaily(ctx context.Context, now time.Time) (domain.SnapshotRunResult, error) {
	s.calls++
	return s.result, s.err
}

func TestNextRunAfter(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)

	next := nextRunAfter(now, 12)
	if !next.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected same-day boundary, got %v", next)
	}

	next = nextRunAfter(now, 10)
	if !next.Equal(time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("passed boundary must roll to next day, got %v", next)
	}

	boundary := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	next = nextRunAfter(boundary, 10)
	if !next.Equal(boundary.AddDate(0, 0, 1)) {
		t.Fatalf("boundary itself must schedule the next day, got %v", next)
	}
}

func TestNewSnapshotJobClampsHour(t *testing.T) {
	if j := NewSnapshotJob(testTracer, nil, 99); j.hourUTC != 0 {
		t.Fatalf("expected clamp to 0, got %d", j.hourUTC)
	}
	if j := NewSnapshotJob(testTracer, nil, 23); j.hourUTC != 23 {
		t.Fatalf("expected 23 kept, got %d", j.hourUTC)
	}
}

func TestRunOnceLogsErrorWithoutPanic(t *testing.T) {
	j := NewSnapshotJob(testTracer, &runnerStub{err: errors.New("boom")}, 0)
	j.runOnce(context.Background())
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	runner := &runnerStub{result: domain.SnapshotRunResult{
		Computed: true,
		Snapshot: &domain.SpreadSnapshot{Date: "2026-06-01", MarketsCount: 2},
	}}
	j := NewSnapshotJob(testTracer, runner, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on cancel")
	}
	if runner.calls != 1 {
		t.Fatalf("expected one immediate run, got %d", runner.calls)
	}
}

func TestStartWithoutRunnerWaitsForCancel(t *testing.T) {
	j := NewSnapshotJob(testTracer, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not exit")
	}
}
