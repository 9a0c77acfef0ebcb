package twelvedata_test

import (
    "context"
    "io"
    "net/http"
    "strings"
    "testing"

    "github.com/stretchr/testify/require"
    "go.uber.org/mock/gomock"

    "marketdash/internal/provider"
    "marketdash/internal/provider/twelvedata"
)

func jsonResponse(status int, body string) *http.Response {
    return &http.Response{
        StatusCode: status,
        Body:       io.NopCloser(strings.NewReader(body)),
    }
}

func TestQuote_ParsesStringNumbers(t *testing.T) {
    t.Parallel()

    // Arrange: create a mock controller and http client
    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)

    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            require.Contains(t, req.URL.Path, "/quote")
            require.Equal(t, "key", req.URL.Query().Get("apikey"))
            return jsonResponse(200, `{
              "symbol":"AAPL","open":"149.00","high":"151.00","low":"147.00",
              "close":"150.00","volume":"1234","previous_close":"148.00",
              "change":"2.00","percent_change":"1.35",
              "datetime":"2024-05-01 15:30:00"
            }`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key", twelvedata.WithHTTPClient(httpClient)))

    // Act
    q, err := p.GetQuote(context.Background(), "AAPL")

    // Assert
    require.NoError(t, err)
    require.Equal(t, 150.0, q.Price)
    require.Equal(t, 148.0, q.PreviousClose)
    require.Equal(t, 2.0, q.Change)
    require.Equal(t, 1.35, q.ChangePercent)
    require.Equal(t, int64(1234), q.Volume)
    require.Equal(t, 2024, q.Timestamp.Year())
}

func TestQuote_ErrorEnvelopeIsNoData(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            return jsonResponse(200, `{"code":404,"message":"symbol not found","status":"error"}`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key", twelvedata.WithHTTPClient(httpClient)))

    _, err := p.GetQuote(context.Background(), "NOPE")
    require.Error(t, err)
    require.Equal(t, provider.NoData, provider.KindOf(err))
}

func TestQuote_TransportFailureIsUpstreamUnavailable(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            return jsonResponse(429, ``), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key", twelvedata.WithHTTPClient(httpClient)))

    _, err := p.GetQuote(context.Background(), "AAPL")
    require.Error(t, err)
    require.Equal(t, provider.UpstreamUnavailable, provider.KindOf(err))
}

func TestSearch_MapsRows(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            require.Contains(t, req.URL.Path, "/symbol_search")
            return jsonResponse(200, `{"data":[
              {"symbol":"AAPL","instrument_name":"Apple Inc","instrument_type":"Common Stock","exchange":"NASDAQ","currency":"USD"},
              {"symbol":"AAPL","instrument_name":"dup"}
            ]}`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key", twelvedata.WithHTTPClient(httpClient)))

    res, err := p.Search(context.Background(), "AAPL")
    require.NoError(t, err)
    require.Len(t, res, 1)
    require.Equal(t, "Apple Inc", res[0].Name)
    require.Equal(t, "NASDAQ", res[0].Region)
}

func TestTimeSeries_TableAndDropRule(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            require.Contains(t, req.URL.Path, "/time_series")
            require.Equal(t, "1week", req.URL.Query().Get("interval"))
            require.Equal(t, "260", req.URL.Query().Get("outputsize"))
            return jsonResponse(200, `{"values":[
              {"datetime":"2024-05-01","open":"1.0","high":"2.0","low":"0.5","close":"1.5","volume":"10"},
              {"datetime":"2024-04-24","open":"0","high":"2.0","low":"0.5","close":"1.6","volume":"10"},
              {"datetime":"2024-04-17","open":"1.1","high":"2.0","low":"0.5","close":"","volume":"10"},
              {"datetime":"2024-04-10","open":"1.2","high":"2.1","low":"0.6","close":"1.7","volume":"not-a-number"}
            ]}`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key", twelvedata.WithHTTPClient(httpClient)))

    pts, err := p.GetTimeSeries(context.Background(), "AAPL", provider.GranWeekly)
    require.NoError(t, err)
    require.Len(t, pts, 2)
    require.Equal(t, 1.5, pts[0].Close)
    require.Equal(t, 1.7, pts[1].Close)
    require.Equal(t, int64(0), pts[1].Volume) // bad volume degrades, bar kept
}

func TestWithBaseURL(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    baseURL := "http://localhost:8080"
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
            return jsonResponse(200, `{"data":[{"symbol":"X"}]}`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key",
        twelvedata.WithHTTPClient(httpClient),
        twelvedata.WithBaseURL(baseURL)))

    _, err := p.Search(context.Background(), "X")
    require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
    t.Parallel()

    ctrl := gomock.NewController(t)
    httpClient := NewMockHTTPClient(ctrl)
    httpClient.EXPECT().
        Do(gomock.Any()).
        DoAndReturn(func(req *http.Request) (*http.Response, error) {
            require.Equal(t, "Mozilla/5.0", req.Header.Get("User-Agent"))
            return jsonResponse(200, `{"data":[{"symbol":"X"}]}`), nil
        }).
        Times(1)

    p := twelvedata.New(twelvedata.NewAPIClient("key",
        twelvedata.WithHTTPClient(httpClient),
        twelvedata.WithHeader(http.Header{"User-Agent": []string{"Mozilla/5.0"}})))

    _, err := p.Search(context.Background(), "X")
    require.NoError(t, err)
}
