package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Yahoo struct {
    Enabled               bool   `json:"enabled"`
    BaseURL               string `json:"base_url"`
    DomesticSuffix        string `json:"domestic_suffix"`
    UserAgent             string `json:"user_agent"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Finnhub struct {
    Enabled               bool   `json:"enabled"`
    APIKey                string `json:"api_key"`
    BaseURL               string `json:"base_url"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type TwelveData struct {
    Enabled               bool   `json:"enabled"`
    APIKey                string `json:"api_key"`
    BaseURL               string `json:"base_url"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

// Chains declares the provider order per operation. An empty list means the
// built-in default order.
type Chains struct {
    Search     []string `json:"search"`
    Quote      []string `json:"quote"`
    TimeSeries []string `json:"timeseries"`
}

type Config struct {
    Server     Server     `json:"server"`
    Yahoo      Yahoo      `json:"yahoo"`
    Finnhub    Finnhub    `json:"finnhub"`
    TwelveData TwelveData `json:"twelvedata"`
    Chains     Chains     `json:"chains"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 10},
        Yahoo: Yahoo{
            Enabled:        true,
            BaseURL:        "https://query1.finance.yahoo.com",
            DomesticSuffix: ".BK",
            UserAgent:      "Mozilla/5.0",
        },
        Finnhub: Finnhub{
            Enabled: true,
            // "demo" works for development with heavy rate limits; a real
            // key is a deployment concern.
            APIKey:  "demo",
            BaseURL: "https://finnhub.io/api/v1",
        },
        TwelveData: TwelveData{
            Enabled: true,
            APIKey:  "demo",
            BaseURL: "https://api.twelvedata.com",
        },
        Chains: Chains{
            Search:     []string{"yahoo", "finnhub", "twelvedata"},
            Quote:      []string{"yahoo", "finnhub", "twelvedata"},
            TimeSeries: []string{"yahoo", "twelvedata"},
        },
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" {
        cfg.Server.Port = v
    }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Server.RequestTimeoutSec = x
        }
    }
    if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
        cfg.Yahoo.BaseURL = v
    }
    if v := os.Getenv("YAHOO_DOMESTIC_SUFFIX"); v != "" {
        cfg.Yahoo.DomesticSuffix = v
    }
    if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
        cfg.Yahoo.UserAgent = v
    }
    if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
        cfg.Finnhub.APIKey = v
    }
    if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
        cfg.Finnhub.BaseURL = v
    }
    if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
        cfg.TwelveData.APIKey = v
    }
    if v := os.Getenv("TWELVE_DATA_BASE_URL"); v != "" {
        cfg.TwelveData.BaseURL = v
    }
    for _, p := range []struct {
        prefix   string
        enabled  *bool
        rpm      *int
        interval *int
        burst    *int
    }{
        {"YAHOO", &cfg.Yahoo.Enabled, &cfg.Yahoo.MaxRequestsPerMinute, &cfg.Yahoo.MinRequestIntervalSec, &cfg.Yahoo.Burst},
        {"FINNHUB", &cfg.Finnhub.Enabled, &cfg.Finnhub.MaxRequestsPerMinute, &cfg.Finnhub.MinRequestIntervalSec, &cfg.Finnhub.Burst},
        {"TWELVE_DATA", &cfg.TwelveData.Enabled, &cfg.TwelveData.MaxRequestsPerMinute, &cfg.TwelveData.MinRequestIntervalSec, &cfg.TwelveData.Burst},
    } {
        if v := os.Getenv(p.prefix + "_ENABLED"); v != "" {
            switch strings.ToLower(v) {
            case "1", "true", "yes", "y":
                *p.enabled = true
            case "0", "false", "no", "n":
                *p.enabled = false
            }
        }
        if v := os.Getenv(p.prefix + "_MAX_RPM"); v != "" {
            var x int
            fmt.Sscanf(v, "%d", &x)
            if x >= 0 {
                *p.rpm = x
            }
        }
        if v := os.Getenv(p.prefix + "_MIN_INTERVAL_SEC"); v != "" {
            var x int
            fmt.Sscanf(v, "%d", &x)
            if x >= 0 {
                *p.interval = x
            }
        }
        if v := os.Getenv(p.prefix + "_BURST"); v != "" {
            var x int
            fmt.Sscanf(v, "%d", &x)
            if x > 0 {
                *p.burst = x
            }
        }
    }
    if v := os.Getenv("CHAIN_SEARCH"); v != "" {
        cfg.Chains.Search = splitCSV(v)
    }
    if v := os.Getenv("CHAIN_QUOTE"); v != "" {
        cfg.Chains.Quote = splitCSV(v)
    }
    if v := os.Getenv("CHAIN_TIMESERIES"); v != "" {
        cfg.Chains.TimeSeries = splitCSV(v)
    }
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
