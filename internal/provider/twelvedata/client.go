package twelvedata

import (
    "context"
    "encoding/json"
    "fmt"
    "maps"
    "net/http"
    "net/url"
)

const baseURL = "https://api.twelvedata.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=twelvedata_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
    Do(req *http.Request) (*http.Response, error)
}

// APIClient is a client for the Twelve Data API.
type APIClient struct {
    // baseURL is the base URL for the API.
    baseURL string
    // httpClient is the HTTP httpClient.
    httpClient HTTPClient
    // header contains additional headers to be sent with each request.
    header http.Header
    // query contains additional query parameters to be sent with each request.
    query url.Values
}

// APIClientOption is a configuration option for the Twelve Data API client.
type APIClientOption func(*APIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) APIClientOption {
    return func(c *APIClient) {
        c.baseURL = baseURL
    }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) APIClientOption {
    return func(c *APIClient) {
        c.httpClient = httpClient
    }
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) APIClientOption {
    return func(c *APIClient) {
        for key, values := range header {
            for _, value := range values {
                c.header.Add(key, value)
            }
        }
    }
}

// NewAPIClient creates a new Twelve Data API client.
func NewAPIClient(key string, options ...APIClientOption) *APIClient {
    var client = &APIClient{
        baseURL:    baseURL,
        httpClient: http.DefaultClient,
        header:     http.Header{},
        query:      url.Values{},
    }
    if key != "" {
        // Twelve Data authenticates via a query parameter.
        // https://twelvedata.com/docs
        client.query.Add("apikey", key)
    }
    for _, option := range options {
        option(client)
    }
    return client
}

// SymbolSearch calls /symbol_search for a symbol.
func (c *APIClient) SymbolSearch(ctx context.Context, symbol string) (*SearchEnvelope, error) {
    var out SearchEnvelope
    if err := c.get(ctx, "symbol_search", url.Values{"symbol": []string{symbol}}, &out); err != nil {
        return nil, err
    }
    return &out, nil
}

// Quote calls /quote for a symbol.
func (c *APIClient) Quote(ctx context.Context, symbol string) (*QuoteEnvelope, error) {
    var out QuoteEnvelope
    if err := c.get(ctx, "quote", url.Values{"symbol": []string{symbol}}, &out); err != nil {
        return nil, err
    }
    return &out, nil
}

// TimeSeries calls /time_series for a symbol at a given interval.
func (c *APIClient) TimeSeries(ctx context.Context, symbol, interval string, outputSize int) (*SeriesEnvelope, error) {
    var out SeriesEnvelope
    q := url.Values{
        "symbol":     []string{symbol},
        "interval":   []string{interval},
        "outputsize": []string{fmt.Sprintf("%d", outputSize)},
    }
    if err := c.get(ctx, "time_series", q, &out); err != nil {
        return nil, err
    }
    return &out, nil
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values, into any) error {
    query := maps.Clone(c.query)
    for k, vs := range params {
        for _, v := range vs {
            query.Add(k, v)
        }
    }
    u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil {
        return fmt.Errorf("creating request: %w", err)
    }
    req.Header = c.header.Clone()

    res, err := c.httpClient.Do(req)
    if err != nil {
        return fmt.Errorf("performing request: %w", err)
    }
    defer res.Body.Close()

    switch res.StatusCode {
    case http.StatusOK:
    case http.StatusTooManyRequests:
        return fmt.Errorf("rate limited")
    case http.StatusUnauthorized, http.StatusForbidden:
        return fmt.Errorf("unauthorized")
    default:
        return fmt.Errorf("unexpected status code: %d", res.StatusCode)
    }

    if err := json.NewDecoder(res.Body).Decode(into); err != nil {
        return fmt.Errorf("decoding response: %w", err)
    }
    return nil
}

// Twelve Data returns numbers as strings and reports errors in-band with a
// nonzero code, so every envelope carries the error pair.

type SearchEnvelope struct {
    Code    int         `json:"code"`
    Message string      `json:"message"`
    Data    []SearchRow `json:"data"`
}

type SearchRow struct {
    Symbol         string `json:"symbol"`
    InstrumentName string `json:"instrument_name"`
    InstrumentType string `json:"instrument_type"`
    Exchange       string `json:"exchange"`
    Currency       string `json:"currency"`
}

type QuoteEnvelope struct {
    Code          int    `json:"code"`
    Message       string `json:"message"`
    Symbol        string `json:"symbol"`
    Open          string `json:"open"`
    High          string `json:"high"`
    Low           string `json:"low"`
    Close         string `json:"close"`
    Volume        string `json:"volume"`
    PreviousClose string `json:"previous_close"`
    Change        string `json:"change"`
    PercentChange string `json:"percent_change"`
    Datetime      string `json:"datetime"`
}

type SeriesEnvelope struct {
    Code    int         `json:"code"`
    Message string      `json:"message"`
    Values  []SeriesRow `json:"values"`
}

type SeriesRow struct {
    Datetime string `json:"datetime"`
    Open     string `json:"open"`
    High     string `json:"high"`
    Low      string `json:"low"`
    Close    string `json:"close"`
    Volume   string `json:"volume"`
}
