package domain

import "time"

// ComputeReason tells callers why the calculator did or did not produce a
// spread. InsufficientMarkets is informational, not an error.
type ComputeReason string

const (
	ReasonOK                  ComputeReason = "ok"
	ReasonSingleMaturity      ComputeReason = "single_maturity"
	ReasonInsufficientMarkets ComputeReason = "insufficient_markets"
)

// Candidate is a normalized fixed-yield market for the target asset.
// Rates are fractional (0.05 = 5%) exactly as the venue quotes them;
// the calculator converts to percentage points once.
type Candidate struct {
	Address        string
	Name           string
	Expiry         time.Time
	ImpliedRate    float64
	UnderlyingRate float64
	LiquidityUSD   float64
	ChainID        int
}

// TermStructurePoint is one maturity on the curve, recomputed per read.
type TermStructurePoint struct {
	Bucket        string  `json:"bucket"`
	Name          string  `json:"name"`
	DaysToExpiry  int     `json:"days_to_expiry"`
	ImpliedAPY    float64 `json:"implied_apy"`
	UnderlyingAPY float64 `json:"underlying_apy"`
	LiquidityUSD  float64 `json:"liquidity_usd"`
}

// SpreadSnapshot is the one durable record per calendar day. APY fields are
// percentage points at 4-decimal precision; date fields are ISO days.
type SpreadSnapshot struct {
	Date          string  `json:"date"`
	TermSpread    float64 `json:"term_spread"`
	FrontMonthAPY float64 `json:"front_month_apy"`
	BackMonthAPY  float64 `json:"back_month_apy"`
	FrontExpiry   string  `json:"front_expiry"`
	BackExpiry    string  `json:"back_expiry"`
	UnderlyingAPY float64 `json:"underlying_apy"`
	MarketsCount  int     `json:"markets_count"`
}

// SnapshotRunResult summarizes one daily pipeline pass. Warnings carry
// per-venue fetch failures that did not abort the pass.
type SnapshotRunResult struct {
	Computed bool
	Reason   ComputeReason
	Snapshot *SpreadSnapshot
	Warnings []string
}
