package curve

import (
	"context"
	"math"

	"spreadwatch/internal/domain"
)

// SpreadStats summarizes the trailing term-spread series.
type SpreadStats struct {
	Count  int     `json:"count"`
	Latest float64 `json:"latest"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	ZScore float64 `json:"z_score"`
	EMA    float64 `json:"ema"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

const smoothingPeriod = 7

// ComputeStats summarizes a snapshot series in ascending date order. The
// z-score is 0 when the window has no variance.
func ComputeStats(snapshots []domain.SpreadSnapshot) SpreadStats {
	if len(snapshots) == 0 {
		return SpreadStats{}
	}

	values := make([]float64, len(snapshots))
	for i, s := range snapshots {
		values[i] = s.TermSpread
	}

	mean, std := meanStd(values)
	smoothed := emaSeries(values, smoothingPeriod)
	latest := values[len(values)-1]

	stats := SpreadStats{
		Count:  len(values),
		Latest: round4(latest),
		Mean:   round4(mean),
		StdDev: round4(std),
		EMA:    round4(smoothed[len(smoothed)-1]),
		Min:    values[0],
		Max:    values[0],
	}
	for _, v := range values {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	if std > 0 {
		stats.ZScore = round4((latest - mean) / std)
	}
	return stats
}

// Stats loads up to days snapshots and summarizes their spread series.
func (s *Service) Stats(ctx context.Context, days int) (SpreadStats, error) {
	ctx, span := s.tracer.Start(ctx, "curve.stats")
	defer span.End()

	snapshots, err := s.History(ctx, days)
	if err != nil {
		return SpreadStats{}, err
	}
	return ComputeStats(snapshots), nil
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
