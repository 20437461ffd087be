package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestFetchActiveMarketsMarketsKey(t *testing.T) {
	p := NewPendleProvider(trace.NewNoopTracerProvider().Tracer("test"), "https://example.com")
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/1/markets/active" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		body := `{"markets":[{"address":"0xabc","name":"PT sUSDe","expiry":"2026-12-25T00:00:00.000Z","details":{"impliedApy":0.081,"underlyingApy":0.064,"liquidity":1200000}}]}`
		return jsonResponse(http.StatusOK, body), nil
	})}

	markets, err := p.FetchActiveMarkets(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
	m := markets[0]
	if m.Address != "0xabc" || m.Name != "PT sUSDe" {
		t.Fatalf("unexpected market: %+v", m)
	}
	if m.Details == nil || m.Details.ImpliedAPY == nil || *m.Details.ImpliedAPY != 0.081 {
		t.Fatalf("details not decoded: %+v", m.Details)
	}
	want := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	if !m.Expiry.Equal(want) {
		t.Fatalf("unexpected expiry: %v", m.Expiry.Time)
	}
}

func TestFetchActiveMarketsResultsKey(t *testing.T) {
	p := NewPendleProvider(trace.NewNoopTracerProvider().Tracer("test"), "https://example.com")
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body := `{"results":[{"address":"0xdef","name":"PT sUSDe 26SEP2026","expiry":"2026-09-26","impliedApy":0.05}]}`
		return jsonResponse(http.StatusOK, body), nil
	})}

	markets, err := p.FetchActiveMarkets(context.Background(), 42161)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 1 || markets[0].Address != "0xdef" {
		t.Fatalf("unexpected markets: %+v", markets)
	}
}

func TestFetchActiveMarketsNonOK(t *testing.T) {
	p := NewPendleProvider(trace.NewNoopTracerProvider().Tracer("test"), "https://example.com")
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	})}

	if _, err := p.FetchActiveMarkets(context.Background(), 1); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFlexTimeVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{`"2026-12-25T00:00:00Z"`, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)},
		{`"2026-12-25"`, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)},
		{`"1798156800"`, time.Unix(1798156800, 0).UTC()},
		{`1798156800`, time.Unix(1798156800, 0).UTC()},
		{`1798156800000`, time.Unix(1798156800, 0).UTC()},
	}
	for _, tc := range cases {
		var ft FlexTime
		if err := json.Unmarshal([]byte(tc.raw), &ft); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if !ft.Equal(tc.want) {
			t.Fatalf("raw %s: expected %v, got %v", tc.raw, tc.want, ft.Time)
		}
	}
}

func TestFlexTimeUnparseableIsZero(t *testing.T) {
	for _, raw := range []string{`"soon"`, `""`, `null`} {
		var ft FlexTime
		if err := json.Unmarshal([]byte(raw), &ft); err != nil {
			t.Fatalf("unmarshal %s should not error: %v", raw, err)
		}
		if !ft.IsZero() {
			t.Fatalf("raw %s: expected zero time, got %v", raw, ft.Time)
		}
	}
}
