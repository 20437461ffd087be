package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const pendleBaseURL = "https://api-v2.pendle.finance/core"

// FlexTime decodes the expiry formats the markets API is known to emit:
// RFC3339 strings, bare dates, and epoch seconds or milliseconds. Anything
// unparseable decodes to the zero time so the normalizer can drop the record
// instead of the whole payload failing.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1_000_000_000_000 {
			n = n / 1000
		}
		t.Time = time.Unix(n, 0).UTC()
		return nil
	}
	t.Time = time.Time{}
	return nil
}

// RawMarket mirrors one active-market record as the API ships it. Yield and
// liquidity figures may appear top-level or nested under details; pointers
// keep absent and zero distinguishable for the normalizer's precedence rules.
type RawMarket struct {
	Address         string            `json:"address"`
	Name            string            `json:"name"`
	ProName         string            `json:"proName"`
	Symbol          string            `json:"symbol"`
	Expiry          FlexTime          `json:"expiry"`
	ImpliedAPY      *float64          `json:"impliedApy"`
	UnderlyingAPY   *float64          `json:"underlyingApy"`
	AggregatedAPY   *float64          `json:"aggregatedApy"`
	Liquidity       *RawLiquidity     `json:"liquidity"`
	Details         *RawMarketDetails `json:"details"`
	UnderlyingAsset *RawAsset         `json:"underlyingAsset"`
}

type RawMarketDetails struct {
	ImpliedAPY    *float64 `json:"impliedApy"`
	UnderlyingAPY *float64 `json:"underlyingApy"`
	AggregatedAPY *float64 `json:"aggregatedApy"`
	Liquidity     *float64 `json:"liquidity"`
}

type RawLiquidity struct {
	USD float64 `json:"usd"`
}

type RawAsset struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type PendleProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewPendleProvider(tracer trace.Tracer, baseURL string) *PendleProvider {
	if baseURL == "" {
		baseURL = pendleBaseURL
	}
	return &PendleProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

// FetchActiveMarkets returns all active markets for one chain. Depending on
// the endpoint variant the list arrives under "markets" or "results"; both
// are accepted.
func (p *PendleProvider) FetchActiveMarkets(ctx context.Context, chainID int) ([]RawMarket, error) {
	_, span := p.tracer.Start(ctx, "pendle.fetch-active-markets")
	defer span.End()
	span.SetAttributes(attribute.Int("chain_id", chainID))

	url := fmt.Sprintf("%s/v1/%d/markets/active", strings.TrimRight(p.baseURL, "/"), chainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("markets API error %d for chain %d: %s", resp.StatusCode, chainID, string(body))
	}

	var payload struct {
		Markets []RawMarket `json:"markets"`
		Results []RawMarket `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode markets response for chain %d: %w", chainID, err)
	}

	if len(payload.Markets) > 0 {
		return payload.Markets, nil
	}
	return payload.Results, nil
}
