// Package twelvedata is the last backup adapter. Unlike the other upstreams it
// reports numbers as strings and supplies its own change figures, which are
// trusted rather than recomputed.
package twelvedata

import (
    "context"
    "math"
    "strconv"
    "strings"
    "time"

    "marketdash/internal/provider"
    "marketdash/internal/provider/symbolmap"
)

type Provider struct {
    client *APIClient
}

func New(client *APIClient) *Provider {
    return &Provider{client: client}
}

func (p *Provider) Name() provider.ID { return provider.TwelveData }

func (p *Provider) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
    env, err := p.client.SymbolSearch(ctx, query)
    if err != nil {
        return nil, provider.WrapErr(provider.TwelveData, provider.UpstreamUnavailable, err)
    }
    if env.Code != 0 || len(env.Data) == 0 {
        return nil, provider.Errf(provider.TwelveData, provider.NoResults, "no matches for %q", query)
    }
    out := make([]provider.SearchResult, 0, len(env.Data))
    for _, r := range env.Data {
        typ := r.InstrumentType
        if typ == "" {
            typ = "Equity"
        }
        region := r.Exchange
        if region == "" {
            region = "US"
        }
        currency := r.Currency
        if currency == "" {
            currency = "USD"
        }
        out = append(out, provider.SearchResult{
            Symbol:   r.Symbol,
            Name:     r.InstrumentName,
            Type:     typ,
            Region:   region,
            Currency: currency,
        })
    }
    return provider.DedupeBySymbol(out), nil
}

func (p *Provider) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
    mapped := symbolmap.Map(symbol, provider.TwelveData)
    env, err := p.client.Quote(ctx, mapped)
    if err != nil {
        return provider.Quote{}, provider.WrapErr(provider.TwelveData, provider.UpstreamUnavailable, err)
    }
    if env.Code != 0 || env.Close == "" {
        return provider.Quote{}, provider.Errf(provider.TwelveData, provider.NoData, "no price for %q", symbol)
    }
    price := parseNum(env.Close)
    if price == 0 {
        return provider.Quote{}, provider.Errf(provider.TwelveData, provider.NoData, "no price for %q", symbol)
    }
    ts := time.Now().UTC()
    if t, ok := parseDatetime(env.Datetime); ok {
        ts = t
    }
    return provider.Quote{
        Symbol:        symbol,
        Price:         price,
        Open:          parseNum(env.Open),
        High:          parseNum(env.High),
        Low:           parseNum(env.Low),
        PreviousClose: parseNum(env.PreviousClose),
        Change:        parseNum(env.Change),
        ChangePercent: parseNum(env.PercentChange),
        Volume:        parseVolume(env.Volume),
        Timestamp:     ts,
    }, nil
}

func (p *Provider) GetTimeSeries(ctx context.Context, symbol string, g provider.Granularity) ([]provider.TimeSeriesPoint, error) {
    mapped := symbolmap.Map(symbol, provider.TwelveData)
    params := seriesParams(g)
    env, err := p.client.TimeSeries(ctx, mapped, params.interval, params.outputSize)
    if err != nil {
        return nil, provider.WrapErr(provider.TwelveData, provider.UpstreamUnavailable, err)
    }
    if env.Code != 0 || len(env.Values) == 0 {
        return nil, provider.Errf(provider.TwelveData, provider.NoData, "no chart data for %q", symbol)
    }
    out := make([]provider.TimeSeriesPoint, 0, len(env.Values))
    for _, v := range env.Values {
        open := parseOptional(v.Open)
        high := parseOptional(v.High)
        low := parseOptional(v.Low)
        closeP := parseOptional(v.Close)
        if !provider.ValidPoint(open, high, low, closeP) {
            continue
        }
        t, ok := parseDatetime(v.Datetime)
        if !ok {
            continue
        }
        out = append(out, provider.TimeSeriesPoint{
            Time:   t,
            Open:   *open,
            High:   *high,
            Low:    *low,
            Close:  *closeP,
            Volume: parseVolume(v.Volume),
        })
    }
    if len(out) == 0 {
        return nil, provider.Errf(provider.TwelveData, provider.NoData, "no chart data for %q", symbol)
    }
    return out, nil
}

type tsParams struct {
    interval   string
    outputSize int
}

// seriesParams is the fixed granularity table for /time_series. Tokens the
// table does not know fall back to 30 daily bars, which is what the upstream
// itself defaults to.
func seriesParams(g provider.Granularity) tsParams {
    switch g {
    case provider.GranIntraday:
        return tsParams{"5min", 78}
    case provider.GranDaily:
        return tsParams{"1day", 500}
    case provider.GranWeekly:
        return tsParams{"1week", 260}
    case provider.GranMonthly:
        return tsParams{"1month", 120}
    default:
        return tsParams{"1day", 30}
    }
}

// parseNum degrades to 0 on any parse failure; load-bearing fields are
// re-checked by the caller.
func parseNum(s string) float64 {
    v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
    if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
        return 0
    }
    return v
}

func parseOptional(s string) *float64 {
    v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
    if err != nil {
        return nil
    }
    return &v
}

func parseVolume(s string) int64 {
    v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
    if err != nil || v < 0 {
        return 0
    }
    return v
}

func parseDatetime(s string) (time.Time, bool) {
    for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
        if t, err := time.Parse(layout, s); err == nil {
            return t.UTC(), true
        }
    }
    return time.Time{}, false
}
