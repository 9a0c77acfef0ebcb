package provider

import (
    "context"
    "math"
    "time"
)

// ID names one upstream market-data service.
type ID string

const (
    Yahoo      ID = "yahoo"
    Finnhub    ID = "finnhub"
    TwelveData ID = "twelvedata"
)

// Granularity is a logical chart resolution paired with a historical range.
// Each adapter owns the mapping from these tokens to the interval/range
// parameters its upstream expects; the tables are fixed and intentionally
// uneven (several 5-day variants at different resolutions).
type Granularity string

const (
    GranIntraday     Granularity = "intraday"     // 5-minute bars, 1 day
    GranIntraday1d1m Granularity = "intraday1d1m" // 1-minute bars, 1 day
    GranIntraday5d1m Granularity = "intraday5d1m"
    GranIntraday5d5m Granularity = "intraday5d5m"
    GranIntraday5d15 Granularity = "intraday5d15m"
    GranIntraday5d30 Granularity = "intraday5d30m"
    GranIntraday5d   Granularity = "intraday5d" // hourly bars, 5 days
    GranIntraday30m  Granularity = "intraday30m"
    GranIntraday1mo  Granularity = "intraday1m" // hourly bars, 1 month
    GranIntraday3mo  Granularity = "intraday3m"
    GranIntraday6mo  Granularity = "intraday6mo"
    GranDaily        Granularity = "daily"
    GranDaily10y     Granularity = "daily10y"
    GranWeekly       Granularity = "weekly"
    GranMonthly      Granularity = "monthly"

    // Raw interval tokens used by the FX chart paths.
    Gran1m Granularity = "1m"
    Gran5m Granularity = "5m"
    Gran15 Granularity = "15m"
    Gran30 Granularity = "30m"
    Gran1h Granularity = "1h"
    Gran1d Granularity = "1d"
)

// Quote is the normalized point-in-time snapshot returned by all providers.
// Constructed fresh per request and never mutated afterwards.
type Quote struct {
    Symbol        string    `json:"symbol"`
    Price         float64   `json:"price"`
    Bid           float64   `json:"bid,omitempty"`
    Ask           float64   `json:"ask,omitempty"`
    Open          float64   `json:"open"`
    High          float64   `json:"high"`
    Low           float64   `json:"low"`
    PreviousClose float64   `json:"previousClose"`
    Change        float64   `json:"change"`
    ChangePercent float64   `json:"changePercent"`
    Volume        int64     `json:"volume"`
    Timestamp     time.Time `json:"timestamp"`
}

// SearchResult is one instrument match from a symbol search.
type SearchResult struct {
    Symbol   string `json:"symbol"`
    Name     string `json:"name"`
    Type     string `json:"type"`
    Region   string `json:"region"`
    Currency string `json:"currency"`
}

// TimeSeriesPoint is one normalized OHLC bar. A point only exists when open,
// high, low and close are all present and finite and open/close are nonzero;
// adapters drop anything else rather than substituting defaults.
type TimeSeriesPoint struct {
    Time   time.Time `json:"time"`
    Open   float64   `json:"open"`
    High   float64   `json:"high"`
    Low    float64   `json:"low"`
    Close  float64   `json:"close"`
    Volume int64     `json:"volume,omitempty"`
}

// Provider is one upstream market-data service plus its normalization logic.
// Every method performs a bounded number of outbound calls and returns either
// normalized data or a *ProviderError.
type Provider interface {
    Name() ID
    Search(ctx context.Context, query string) ([]SearchResult, error)
    GetQuote(ctx context.Context, symbol string) (Quote, error)
    GetTimeSeries(ctx context.Context, symbol string, g Granularity) ([]TimeSeriesPoint, error)
}

// ValidPoint reports whether an OHLC bar passes the keep rule.
func ValidPoint(open, high, low, closeP *float64) bool {
    for _, v := range []*float64{open, high, low, closeP} {
        if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
            return false
        }
    }
    return *open != 0 && *closeP != 0
}

// DedupeBySymbol keeps the first occurrence of each symbol, preserving order.
// Entries with an empty symbol are dropped.
func DedupeBySymbol(in []SearchResult) []SearchResult {
    seen := make(map[string]struct{}, len(in))
    out := make([]SearchResult, 0, len(in))
    for _, r := range in {
        if r.Symbol == "" {
            continue
        }
        if _, ok := seen[r.Symbol]; ok {
            continue
        }
        seen[r.Symbol] = struct{}{}
        out = append(out, r)
    }
    return out
}
