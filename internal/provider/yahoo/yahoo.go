// Package yahoo is the primary adapter. It talks to the Yahoo Finance search
// and v8 chart endpoints, which need no API key but insist on a browser
// User-Agent.
package yahoo

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "sync"
    "time"

    "marketdash/internal/httpx"
    "marketdash/internal/provider"
    "marketdash/internal/provider/symbolmap"
)

type Config struct {
    BaseURL string // default: https://query1.finance.yahoo.com
    // DomesticSuffix is appended to the raw query for the second search
    // sub-query; matches from that sub-query rank first.
    DomesticSuffix string // default: .BK
    Headers        map[string]string
}

type Provider struct {
    cfg    Config
    client httpx.Doer
}

func New(cfg Config, hc httpx.Doer) *Provider {
    if cfg.BaseURL == "" {
        cfg.BaseURL = "https://query1.finance.yahoo.com"
    }
    if cfg.DomesticSuffix == "" {
        cfg.DomesticSuffix = ".BK"
    }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() provider.ID { return provider.Yahoo }

// Search issues two sub-queries concurrently: the raw query and the query with
// the domestic market suffix. A failed sub-query degrades to zero matches.
// Domestic results are placed first, then the list is deduplicated by symbol,
// first occurrence winning.
func (p *Provider) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
    var (
        wg       sync.WaitGroup
        generic  []searchHit
        domestic []searchHit
    )
    wg.Add(2)
    go func() {
        defer wg.Done()
        generic, _ = p.searchOne(ctx, query, 10)
    }()
    go func() {
        defer wg.Done()
        domestic, _ = p.searchOne(ctx, query+p.cfg.DomesticSuffix, 5)
    }()
    wg.Wait()

    merged := make([]provider.SearchResult, 0, len(domestic)+len(generic))
    for _, h := range append(domestic, generic...) {
        name := h.ShortName
        if name == "" {
            name = h.LongName
        }
        if name == "" {
            name = h.Symbol
        }
        merged = append(merged, provider.SearchResult{
            Symbol:   h.Symbol,
            Name:     name,
            Type:     orDefault(h.QuoteType, "Equity"),
            Region:   orDefault(h.Exchange, "US"),
            Currency: orDefault(h.Currency, "USD"),
        })
    }
    out := provider.DedupeBySymbol(merged)
    if len(out) == 0 {
        return nil, provider.Errf(provider.Yahoo, provider.NoResults, "no matches for %q", query)
    }
    return out, nil
}

func (p *Provider) searchOne(ctx context.Context, query string, count int) ([]searchHit, error) {
    u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=0",
        p.cfg.BaseURL, url.QueryEscape(query), count)
    var body searchResponse
    if err := p.getJSON(ctx, u, &body); err != nil {
        return nil, err
    }
    return body.Quotes, nil
}

func (p *Provider) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
    res, err := p.chart(ctx, symbol, "1d", "1d")
    if err != nil {
        return provider.Quote{}, err
    }

    meta := res.Meta
    price := deref(meta.RegularMarketPrice)
    if price == 0 {
        return provider.Quote{}, provider.Errf(provider.Yahoo, provider.NoData, "no price for %q", symbol)
    }
    prevClose := firstNonZero(deref(meta.ChartPreviousClose), deref(meta.PreviousClose), price)
    change := price - prevClose
    changePct := 0.0
    if prevClose != 0 {
        changePct = change / prevClose * 100
    }

    var bars chartQuote
    if len(res.Indicators.Quote) > 0 {
        bars = res.Indicators.Quote[0]
    }
    // Synthetic spread the way the FX dashboard quotes it.
    spread := price * 0.0001
    q := provider.Quote{
        Symbol:        symbol,
        Price:         price,
        Bid:           price - spread/2,
        Ask:           price + spread/2,
        Open:          firstNonZero(firstBar(bars.Open), deref(meta.RegularMarketOpen), price),
        High:          firstNonZero(firstBar(bars.High), deref(meta.RegularMarketDayHigh), price),
        Low:           firstNonZero(firstBar(bars.Low), deref(meta.RegularMarketDayLow), price),
        PreviousClose: prevClose,
        Change:        change,
        ChangePercent: changePct,
        Volume:        firstVolume(bars.Volume, meta.RegularMarketVolume),
        Timestamp:     time.Now().UTC(),
    }
    return q, nil
}

func (p *Provider) GetTimeSeries(ctx context.Context, symbol string, g provider.Granularity) ([]provider.TimeSeriesPoint, error) {
    params := seriesParams(g)
    res, err := p.chart(ctx, symbol, params.interval, params.rng)
    if err != nil {
        return nil, err
    }
    var bars chartQuote
    if len(res.Indicators.Quote) > 0 {
        bars = res.Indicators.Quote[0]
    }
    out := make([]provider.TimeSeriesPoint, 0, len(res.Timestamp))
    for i, ts := range res.Timestamp {
        open := at(bars.Open, i)
        high := at(bars.High, i)
        low := at(bars.Low, i)
        closeP := at(bars.Close, i)
        if !provider.ValidPoint(open, high, low, closeP) {
            continue
        }
        pt := provider.TimeSeriesPoint{
            Time:  time.Unix(ts, 0).UTC(),
            Open:  *open,
            High:  *high,
            Low:   *low,
            Close: *closeP,
        }
        if v := atInt(bars.Volume, i); v != nil {
            pt.Volume = *v
        }
        out = append(out, pt)
    }
    if len(out) == 0 {
        return nil, provider.Errf(provider.Yahoo, provider.NoData, "no chart data for %q", symbol)
    }
    return out, nil
}

// chart fetches and unwraps the v8 chart envelope for a mapped symbol.
func (p *Provider) chart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
    mapped := symbolmap.Map(symbol, provider.Yahoo)
    u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
        p.cfg.BaseURL, url.PathEscape(mapped), interval, rng)
    var body chartResponse
    if err := p.getJSON(ctx, u, &body); err != nil {
        return nil, err
    }
    if len(body.Chart.Result) == 0 {
        return nil, provider.Errf(provider.Yahoo, provider.NoData, "no data for %q", symbol)
    }
    return &body.Chart.Result[0], nil
}

func (p *Provider) getJSON(ctx context.Context, u string, into any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil {
        return provider.WrapErr(provider.Yahoo, provider.UpstreamUnavailable, err)
    }
    for k, v := range p.cfg.Headers {
        req.Header.Set(k, v)
    }
    resp, err := p.client.Do(ctx, req)
    if err != nil {
        return provider.WrapErr(provider.Yahoo, provider.UpstreamUnavailable, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        return provider.Errf(provider.Yahoo, provider.UpstreamUnavailable, "GET %s -> %d: %s", u, resp.StatusCode, string(b))
    }
    if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
        return provider.WrapErr(provider.Yahoo, provider.UpstreamUnavailable, fmt.Errorf("decode: %w", err))
    }
    return nil
}

type chartParams struct {
    interval string
    rng      string
}

// seriesParams is the fixed granularity table for the v8 chart endpoint. The
// overlapping 5-day variants are intentional; do not collapse them.
func seriesParams(g provider.Granularity) chartParams {
    switch g {
    case provider.GranIntraday:
        return chartParams{"5m", "1d"}
    case provider.GranIntraday5d5m:
        return chartParams{"5m", "5d"}
    case provider.GranIntraday1d1m:
        return chartParams{"1m", "1d"}
    case provider.GranIntraday5d1m:
        return chartParams{"1m", "5d"}
    case provider.GranIntraday5d15:
        return chartParams{"15m", "5d"}
    case provider.GranIntraday5d30:
        return chartParams{"30m", "5d"}
    case provider.GranIntraday5d:
        return chartParams{"60m", "5d"}
    case provider.GranIntraday30m:
        return chartParams{"30m", "1mo"}
    case provider.GranIntraday1mo:
        return chartParams{"60m", "1mo"}
    case provider.GranIntraday3mo:
        return chartParams{"60m", "3mo"}
    case provider.GranIntraday6mo:
        return chartParams{"60m", "6mo"}
    case provider.GranDaily:
        return chartParams{"1d", "5y"}
    case provider.GranDaily10y:
        return chartParams{"1d", "10y"}
    case provider.GranWeekly:
        return chartParams{"1wk", "max"}
    case provider.GranMonthly:
        return chartParams{"1mo", "max"}
    case provider.Gran1m:
        return chartParams{"1m", "7d"} // 1m bars cap out around 7 days
    case provider.Gran5m:
        return chartParams{"5m", "60d"}
    case provider.Gran15:
        return chartParams{"15m", "60d"}
    case provider.Gran30:
        return chartParams{"30m", "60d"}
    case provider.Gran1h:
        return chartParams{"60m", "730d"}
    case provider.Gran1d:
        return chartParams{"1d", "1y"}
    default:
        return chartParams{"5m", "60d"}
    }
}

// Envelope shapes for the two Yahoo endpoints. Arrays carry nulls for missing
// bars, hence the pointer elements.

type searchResponse struct {
    Quotes []searchHit `json:"quotes"`
}

type searchHit struct {
    Symbol    string `json:"symbol"`
    ShortName string `json:"shortname"`
    LongName  string `json:"longname"`
    QuoteType string `json:"quoteType"`
    Exchange  string `json:"exchange"`
    Currency  string `json:"currency"`
}

type chartResponse struct {
    Chart struct {
        Result []chartResult `json:"result"`
        Error  any           `json:"error"`
    } `json:"chart"`
}

type chartResult struct {
    Meta       chartMeta `json:"meta"`
    Timestamp  []int64   `json:"timestamp"`
    Indicators struct {
        Quote []chartQuote `json:"quote"`
    } `json:"indicators"`
}

type chartMeta struct {
    RegularMarketPrice   *float64 `json:"regularMarketPrice"`
    ChartPreviousClose   *float64 `json:"chartPreviousClose"`
    PreviousClose        *float64 `json:"previousClose"`
    RegularMarketOpen    *float64 `json:"regularMarketOpen"`
    RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
    RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
    RegularMarketVolume  *int64   `json:"regularMarketVolume"`
}

type chartQuote struct {
    Open   []*float64 `json:"open"`
    High   []*float64 `json:"high"`
    Low    []*float64 `json:"low"`
    Close  []*float64 `json:"close"`
    Volume []*int64   `json:"volume"`
}

func deref(v *float64) float64 {
    if v == nil {
        return 0
    }
    return *v
}

func firstNonZero(vs ...float64) float64 {
    for _, v := range vs {
        if v != 0 {
            return v
        }
    }
    return 0
}

func firstBar(vs []*float64) float64 {
    if len(vs) > 0 && vs[0] != nil {
        return *vs[0]
    }
    return 0
}

func firstVolume(vs []*int64, meta *int64) int64 {
    for _, v := range vs {
        if v != nil && *v > 0 {
            return *v
        }
    }
    if meta != nil {
        return *meta
    }
    return 0
}

func at(vs []*float64, i int) *float64 {
    if i < len(vs) {
        return vs[i]
    }
    return nil
}

func atInt(vs []*int64, i int) *int64 {
    if i < len(vs) {
        return vs[i]
    }
    return nil
}

func orDefault(v, def string) string {
    if v == "" {
        return def
    }
    return v
}
