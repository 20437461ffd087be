package curve

import (
	"math"
	"sort"
	"time"

	"spreadwatch/internal/domain"
)

const dateLayout = "2006-01-02"

// Result is one calculator pass. Snapshot is nil exactly when Reason is
// ReasonInsufficientMarkets.
type Result struct {
	Structure []domain.TermStructurePoint
	Snapshot  *domain.SpreadSnapshot
	Reason    domain.ComputeReason
}

// ComputeSpread orders the candidates by time to maturity and derives the
// term spread between the sorted extremes. The clock is injected so that
// expiry filtering and the snapshot's day key stay deterministic.
//
// Candidates whose expiry is not strictly in the future of asOf are excluded
// before ordering. Upstream rates are fractional and are scaled to percentage
// points here, exactly once.
func ComputeSpread(candidates []domain.Candidate, asOf time.Time) Result {
	asOf = asOf.UTC()

	live := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if daysToExpiry(asOf, c.Expiry) > 0 {
			live = append(live, c)
		}
	}

	// Stable sort: identical expiries keep their upstream order.
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Expiry.Before(live[j].Expiry)
	})

	structure := make([]domain.TermStructurePoint, 0, len(live))
	for _, c := range live {
		structure = append(structure, domain.TermStructurePoint{
			Bucket:        c.Expiry.UTC().Format("Jan 2006"),
			Name:          c.Name,
			DaysToExpiry:  daysToExpiry(asOf, c.Expiry),
			ImpliedAPY:    round4(c.ImpliedRate * 100),
			UnderlyingAPY: round4(c.UnderlyingRate * 100),
			LiquidityUSD:  c.LiquidityUSD,
		})
	}

	if len(live) == 0 {
		return Result{Structure: structure, Reason: domain.ReasonInsufficientMarkets}
	}

	front := live[0]
	back := live[len(live)-1]

	reason := domain.ReasonOK
	spread := round4((back.ImpliedRate - front.ImpliedRate) * 100)
	if len(live) == 1 {
		reason = domain.ReasonSingleMaturity
		spread = 0
	}

	snapshot := &domain.SpreadSnapshot{
		Date:          asOf.Format(dateLayout),
		TermSpread:    spread,
		FrontMonthAPY: round4(front.ImpliedRate * 100),
		BackMonthAPY:  round4(back.ImpliedRate * 100),
		FrontExpiry:   front.Expiry.UTC().Format(dateLayout),
		BackExpiry:    back.Expiry.UTC().Format(dateLayout),
		UnderlyingAPY: round4(front.UnderlyingRate * 100),
		MarketsCount:  len(live),
	}
	return Result{Structure: structure, Snapshot: snapshot, Reason: reason}
}

// daysToExpiry rounds up, so a market expiring later today still counts as
// one day out; at or past asOf it is zero or negative.
func daysToExpiry(asOf, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(asOf).Hours() / 24))
}

// round4 rounds half away from zero to 4 decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
