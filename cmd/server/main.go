package main

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "go.uber.org/zap"

    "marketdash/internal/config"
    "marketdash/internal/httpx"
    "marketdash/internal/logging"
    "marketdash/internal/marketdata"
    "marketdash/internal/provider"
    "marketdash/internal/provider/finnhub"
    "marketdash/internal/provider/ratelimit"
    "marketdash/internal/provider/twelvedata"
    "marketdash/internal/provider/yahoo"
)

func main() {
    _ = godotenv.Load()

    log, err := logging.New(os.Getenv("APP_ENV"))
    if err != nil {
        panic(err)
    }
    defer log.Sync()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        log.Fatal("config", zap.Error(err))
    }

    if cfg.Finnhub.Enabled && cfg.Finnhub.APIKey == "demo" {
        log.Warn("finnhub running with the demo key; expect tight rate limits")
    }
    if cfg.TwelveData.Enabled && cfg.TwelveData.APIKey == "demo" {
        log.Warn("twelvedata running with the demo key; expect tight rate limits")
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    if cfg.Yahoo.UserAgent != "" {
        httpClient.UserAgent = cfg.Yahoo.UserAgent
    }

    svc := marketdata.New(log, chainOrder(cfg), buildProviders(cfg, httpClient)...)

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/api/stock", stockHandler(svc))
    mux.HandleFunc("/api/quotes", batchHandler(svc))

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Info("server listening", zap.String("port", cfg.Server.Port))
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("server", zap.Error(err))
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func buildProviders(cfg config.Config, hc *httpx.Client) []provider.Provider {
    var providers []provider.Provider
    if cfg.Yahoo.Enabled {
        var p provider.Provider = yahoo.New(yahoo.Config{
            BaseURL:        cfg.Yahoo.BaseURL,
            DomesticSuffix: cfg.Yahoo.DomesticSuffix,
        }, hc)
        p = withLimits(p, cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst, cfg.Yahoo.MinRequestIntervalSec)
        providers = append(providers, p)
    }
    if cfg.Finnhub.Enabled {
        var p provider.Provider = finnhub.New(finnhub.Config{
            BaseURL: cfg.Finnhub.BaseURL,
            APIKey:  cfg.Finnhub.APIKey,
        }, hc)
        p = withLimits(p, cfg.Finnhub.MaxRequestsPerMinute, cfg.Finnhub.Burst, cfg.Finnhub.MinRequestIntervalSec)
        providers = append(providers, p)
    }
    if cfg.TwelveData.Enabled {
        client := twelvedata.NewAPIClient(
            cfg.TwelveData.APIKey,
            twelvedata.WithHTTPClient(hc.HTTP),
            twelvedata.WithBaseURL(cfg.TwelveData.BaseURL),
            twelvedata.WithHeader(http.Header{"User-Agent": []string{hc.UserAgent}}),
        )
        var p provider.Provider = twelvedata.New(client)
        p = withLimits(p, cfg.TwelveData.MaxRequestsPerMinute, cfg.TwelveData.Burst, cfg.TwelveData.MinRequestIntervalSec)
        providers = append(providers, p)
    }
    return providers
}

// withLimits prefers a token bucket with burst when an RPM cap is set,
// otherwise a plain minimum interval.
func withLimits(p provider.Provider, rpm, burst, minIntervalSec int) provider.Provider {
    if rpm > 0 {
        if burst <= 0 {
            burst = 1
        }
        return &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(float64(rpm)/60.0, burst)}
    }
    if minIntervalSec > 0 {
        return &ratelimit.MinInterval{P: p, Interval: time.Duration(minIntervalSec) * time.Second}
    }
    return p
}

func chainOrder(cfg config.Config) marketdata.ChainOrder {
    def := marketdata.DefaultChainOrder()
    return marketdata.ChainOrder{
        Search:     toIDs(cfg.Chains.Search, def.Search),
        Quote:      toIDs(cfg.Chains.Quote, def.Quote),
        TimeSeries: toIDs(cfg.Chains.TimeSeries, def.TimeSeries),
    }
}

func toIDs(names []string, def []provider.ID) []provider.ID {
    if len(names) == 0 {
        return def
    }
    out := make([]provider.ID, 0, len(names))
    for _, n := range names {
        out = append(out, provider.ID(strings.ToLower(strings.TrimSpace(n))))
    }
    return out
}

type searchResponse struct {
    Source  string                  `json:"source"`
    Results []provider.SearchResult `json:"results"`
}

type quoteResponse struct {
    Source string         `json:"source"`
    Quote  provider.Quote `json:"quote"`
}

type seriesResponse struct {
    Source string                     `json:"source"`
    Series []provider.TimeSeriesPoint `json:"series"`
}

type batchResponse struct {
    Quotes map[string]provider.Quote `json:"quotes"`
}

type errorResponse struct {
    Error string `json:"error"`
    Kind  string `json:"kind"`
}

// stockHandler serves search, quote and time-series lookups for one symbol.
// type selects the operation (anything that is not search/quote is a
// granularity token); provider forces a single adapter with no fallback.
func stockHandler(svc *marketdata.Service) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
        if symbol == "" {
            writeError(w, provider.Errf("", provider.InvalidRequest, "missing symbol query param"))
            return
        }
        typ := r.URL.Query().Get("type")
        if typ == "" {
            typ = "quote"
        }
        force := provider.ID(r.URL.Query().Get("provider"))

        switch typ {
        case "search":
            res, err := svc.Search(r.Context(), symbol, force)
            if err != nil {
                writeError(w, err)
                return
            }
            writeJSON(w, searchResponse{Source: string(res.Provider), Results: res.Data})
        case "quote":
            res, err := svc.Quote(r.Context(), symbol, force)
            if err != nil {
                writeError(w, err)
                return
            }
            writeJSON(w, quoteResponse{Source: string(res.Provider), Quote: res.Data})
        default:
            res, err := svc.TimeSeries(r.Context(), symbol, provider.Granularity(typ), force)
            if err != nil {
                writeError(w, err)
                return
            }
            writeJSON(w, seriesResponse{Source: string(res.Provider), Series: res.Data})
        }
    }
}

// batchHandler serves watchlist quotes. Failed symbols are omitted; an empty
// result is still a 200.
func batchHandler(svc *marketdata.Service) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
        if raw == "" {
            writeError(w, provider.Errf("", provider.InvalidRequest, "missing symbols query param"))
            return
        }
        symbols := splitCSV(raw)
        if len(symbols) > 100 {
            writeError(w, provider.Errf("", provider.InvalidRequest, "too many symbols (max 100)"))
            return
        }
        quotes, err := svc.BatchQuotes(r.Context(), symbols)
        if err != nil {
            writeError(w, err)
            return
        }
        writeJSON(w, batchResponse{Quotes: quotes})
    }
}

func writeJSON(w http.ResponseWriter, v any) {
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
    kind := provider.KindOf(err)
    status := http.StatusInternalServerError
    if kind == provider.InvalidRequest {
        status = http.StatusBadRequest
    }
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Kind: string(kind)})
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
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
