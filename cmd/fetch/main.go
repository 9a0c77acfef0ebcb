package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "go.uber.org/zap"

    "marketdash/internal/config"
    "marketdash/internal/httpx"
    "marketdash/internal/logging"
    "marketdash/internal/marketdata"
    "marketdash/internal/provider"
    "marketdash/internal/provider/finnhub"
    "marketdash/internal/provider/twelvedata"
    "marketdash/internal/provider/yahoo"
)

// fetch is a one-shot diagnostic client for the provider chains: run a single
// search/quote/series/batch operation and print the normalized JSON.
func main() {
    var op string
    var symbol string
    var symbolsCSV string
    var granularity string
    var forceProvider string
    var timeout int
    var configPath string

    flag.StringVar(&op, "op", "quote", "operation: search|quote|series|batch")
    flag.StringVar(&symbol, "symbol", getenv("SYMBOL", "AAPL"), "instrument symbol (or search query)")
    flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", ""), "comma-separated symbols for -op batch")
    flag.StringVar(&granularity, "granularity", getenv("GRANULARITY", "daily"), "series granularity token")
    flag.StringVar(&forceProvider, "provider", "", "force one provider, no fallback (yahoo|finnhub|twelvedata)")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.Parse()

    _ = godotenv.Load()

    log, err := logging.New(os.Getenv("APP_ENV"))
    if err != nil {
        panic(err)
    }
    defer log.Sync()

    cfg, err := config.Load(configPath)
    if err != nil {
        log.Fatal("config", zap.Error(err))
    }
    if timeout != 0 {
        cfg.Server.RequestTimeoutSec = timeout
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    if cfg.Yahoo.UserAgent != "" {
        httpClient.UserAgent = cfg.Yahoo.UserAgent
    }

    var providers []provider.Provider
    if cfg.Yahoo.Enabled {
        providers = append(providers, yahoo.New(yahoo.Config{
            BaseURL:        cfg.Yahoo.BaseURL,
            DomesticSuffix: cfg.Yahoo.DomesticSuffix,
        }, httpClient))
    }
    if cfg.Finnhub.Enabled {
        providers = append(providers, finnhub.New(finnhub.Config{
            BaseURL: cfg.Finnhub.BaseURL,
            APIKey:  cfg.Finnhub.APIKey,
        }, httpClient))
    }
    if cfg.TwelveData.Enabled {
        client := twelvedata.NewAPIClient(
            cfg.TwelveData.APIKey,
            twelvedata.WithHTTPClient(httpClient.HTTP),
            twelvedata.WithBaseURL(cfg.TwelveData.BaseURL),
            twelvedata.WithHeader(http.Header{"User-Agent": []string{httpClient.UserAgent}}),
        )
        providers = append(providers, twelvedata.New(client))
    }

    svc := marketdata.New(log, marketdata.DefaultChainOrder(), providers...)
    force := provider.ID(forceProvider)

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    var out any
    switch op {
    case "search":
        res, err := svc.Search(ctx, symbol, force)
        if err != nil {
            log.Fatal("search", zap.Error(err))
        }
        out = map[string]any{"source": res.Provider, "results": res.Data}
    case "quote":
        res, err := svc.Quote(ctx, symbol, force)
        if err != nil {
            log.Fatal("quote", zap.Error(err))
        }
        out = map[string]any{"source": res.Provider, "quote": res.Data}
    case "series":
        res, err := svc.TimeSeries(ctx, symbol, provider.Granularity(granularity), force)
        if err != nil {
            log.Fatal("series", zap.Error(err))
        }
        out = map[string]any{"source": res.Provider, "series": res.Data}
    case "batch":
        symbols := splitCSV(symbolsCSV)
        if len(symbols) == 0 {
            symbols = []string{symbol}
        }
        quotes, err := svc.BatchQuotes(ctx, symbols)
        if err != nil {
            log.Fatal("batch", zap.Error(err))
        }
        out = map[string]any{"quotes": quotes}
    default:
        log.Fatal("unknown op", zap.String("op", op))
    }

    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    enc.SetEscapeHTML(false)
    _ = enc.Encode(out)
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 {
            return x
        }
    }
    return def
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}
