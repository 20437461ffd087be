package curve

import (
	"strings"

	"spreadwatch/internal/domain"
	"spreadwatch/internal/provider"
)

// Normalize selects the markets for the target asset and flattens the
// inconsistent payload shapes into typed candidates. A record qualifies when
// its display name or underlying-asset symbol contains assetSymbol
// case-insensitively; when nothing matches strictly, one broadened pass runs
// against the configured related protocol names before giving up.
//
// Records without a parseable expiry are dropped here, silently: that is
// steady-state upstream noise, not an error. The function never fails; a
// malformed or non-matching input yields an empty slice.
func Normalize(raw []provider.RawMarket, assetSymbol string, relatedNames []string) []domain.Candidate {
	matched := filterMarkets(raw, assetSymbol)
	if len(matched) == 0 {
		for _, name := range relatedNames {
			if more := filterMarkets(raw, name); len(more) > 0 {
				matched = more
				break
			}
		}
	}

	out := make([]domain.Candidate, 0, len(matched))
	for _, m := range matched {
		if m.Expiry.IsZero() {
			continue
		}
		out = append(out, domain.Candidate{
			Address:        m.Address,
			Name:           displayName(m),
			Expiry:         m.Expiry.UTC(),
			ImpliedRate:    resolveImpliedRate(m),
			UnderlyingRate: resolveUnderlyingRate(m),
			LiquidityUSD:   resolveLiquidity(m),
		})
	}
	return out
}

func filterMarkets(raw []provider.RawMarket, needle string) []provider.RawMarket {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return nil
	}
	var matched []provider.RawMarket
	for _, m := range raw {
		if strings.Contains(strings.ToLower(displayName(m)), needle) ||
			strings.Contains(strings.ToLower(underlyingSymbol(m)), needle) {
			matched = append(matched, m)
		}
	}
	return matched
}

func displayName(m provider.RawMarket) string {
	for _, name := range []string{m.Name, m.ProName, m.Symbol} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return m.Address
}

func underlyingSymbol(m provider.RawMarket) string {
	if m.UnderlyingAsset == nil {
		return ""
	}
	if m.UnderlyingAsset.Symbol != "" {
		return m.UnderlyingAsset.Symbol
	}
	return m.UnderlyingAsset.Name
}

// Precedence: details field, then the top-level field of the same name,
// then the aggregated alias (details first), then zero.
func resolveImpliedRate(m provider.RawMarket) float64 {
	if m.Details != nil && m.Details.ImpliedAPY != nil {
		return *m.Details.ImpliedAPY
	}
	if m.ImpliedAPY != nil {
		return *m.ImpliedAPY
	}
	return 0
}

func resolveUnderlyingRate(m provider.RawMarket) float64 {
	if m.Details != nil && m.Details.UnderlyingAPY != nil {
		return *m.Details.UnderlyingAPY
	}
	if m.UnderlyingAPY != nil {
		return *m.UnderlyingAPY
	}
	if m.Details != nil && m.Details.AggregatedAPY != nil {
		return *m.Details.AggregatedAPY
	}
	if m.AggregatedAPY != nil {
		return *m.AggregatedAPY
	}
	return 0
}

func resolveLiquidity(m provider.RawMarket) float64 {
	if m.Details != nil && m.Details.Liquidity != nil {
		return *m.Details.Liquidity
	}
	if m.Liquidity != nil {
		return m.Liquidity.USD
	}
	return 0
}
