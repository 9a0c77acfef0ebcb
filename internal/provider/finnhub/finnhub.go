// Package finnhub is a backup adapter for search and quotes. Finnhub's candle
// endpoints are not part of any time-series chain, so GetTimeSeries always
// reports no data.
package finnhub

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "time"

    "marketdash/internal/httpx"
    "marketdash/internal/provider"
    "marketdash/internal/provider/symbolmap"
)

type Config struct {
    BaseURL string // default: https://finnhub.io/api/v1
    APIKey  string // "demo" works with heavy rate limits
}

type Provider struct {
    cfg    Config
    client httpx.Doer
}

func New(cfg Config, hc httpx.Doer) *Provider {
    if cfg.BaseURL == "" {
        cfg.BaseURL = "https://finnhub.io/api/v1"
    }
    if cfg.APIKey == "" {
        cfg.APIKey = "demo"
    }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() provider.ID { return provider.Finnhub }

func (p *Provider) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
    u := fmt.Sprintf("%s/search?q=%s&token=%s", p.cfg.BaseURL, url.QueryEscape(query), url.QueryEscape(p.cfg.APIKey))
    var body searchResponse
    if err := p.getJSON(ctx, u, &body); err != nil {
        return nil, err
    }
    if len(body.Result) == 0 {
        return nil, provider.Errf(provider.Finnhub, provider.NoResults, "no matches for %q", query)
    }
    out := make([]provider.SearchResult, 0, len(body.Result))
    for _, r := range body.Result {
        typ := r.Type
        if typ == "" {
            typ = "Equity"
        }
        out = append(out, provider.SearchResult{
            Symbol:   r.Symbol,
            Name:     r.Description,
            Type:     typ,
            Region:   "US",
            Currency: "USD",
        })
    }
    return provider.DedupeBySymbol(out), nil
}

func (p *Provider) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
    mapped := symbolmap.Map(symbol, provider.Finnhub)
    u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", p.cfg.BaseURL, url.QueryEscape(mapped), url.QueryEscape(p.cfg.APIKey))
    var body quoteResponse
    if err := p.getJSON(ctx, u, &body); err != nil {
        return provider.Quote{}, err
    }
    if body.Current == 0 {
        return provider.Quote{}, provider.Errf(provider.Finnhub, provider.NoData, "no price for %q", symbol)
    }
    change := body.Current - body.PrevClose
    changePct := 0.0
    if body.PrevClose != 0 {
        changePct = change / body.PrevClose * 100
    }
    return provider.Quote{
        Symbol:        symbol,
        Price:         body.Current,
        Open:          body.Open,
        High:          body.High,
        Low:           body.Low,
        PreviousClose: body.PrevClose,
        Change:        change,
        ChangePercent: changePct,
        Volume:        0, // the quote endpoint carries no volume
        Timestamp:     time.Now().UTC(),
    }, nil
}

func (p *Provider) GetTimeSeries(ctx context.Context, symbol string, _ provider.Granularity) ([]provider.TimeSeriesPoint, error) {
    return nil, provider.Errf(provider.Finnhub, provider.NoData, "time series not supported for %q", symbol)
}

func (p *Provider) getJSON(ctx context.Context, u string, into any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil {
        return provider.WrapErr(provider.Finnhub, provider.UpstreamUnavailable, err)
    }
    resp, err := p.client.Do(ctx, req)
    if err != nil {
        return provider.WrapErr(provider.Finnhub, provider.UpstreamUnavailable, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        return provider.Errf(provider.Finnhub, provider.UpstreamUnavailable, "GET %s -> %d: %s", u, resp.StatusCode, string(b))
    }
    if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
        return provider.WrapErr(provider.Finnhub, provider.UpstreamUnavailable, fmt.Errorf("decode: %w", err))
    }
    return nil
}

type searchResponse struct {
    Result []searchHit `json:"result"`
}

type searchHit struct {
    Symbol      string `json:"symbol"`
    Description string `json:"description"`
    Type        string `json:"type"`
}

type quoteResponse struct {
    Current   float64 `json:"c"`
    Open      float64 `json:"o"`
    High      float64 `json:"h"`
    Low       float64 `json:"l"`
    PrevClose float64 `json:"pc"`
}
