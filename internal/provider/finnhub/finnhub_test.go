package finnhub_test

import (
    "context"
    "io"
    "net/http"
    "strings"
    "testing"

    "github.com/stretchr/testify/require"

    "marketdash/internal/provider"
    "marketdash/internal/provider/finnhub"
)

type fakeDoer struct {
    handle func(req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(_ context.Context, req *http.Request) (*http.Response, error) {
    return f.handle(req)
}

func jsonResponse(status int, body string) *http.Response {
    return &http.Response{
        StatusCode: status,
        Body:       io.NopCloser(strings.NewReader(body)),
    }
}

func TestGetQuote_Normalizes(t *testing.T) {
    t.Parallel()

    p := finnhub.New(finnhub.Config{APIKey: "k"}, &fakeDoer{handle: func(req *http.Request) (*http.Response, error) {
        require.Contains(t, req.URL.Path, "/quote")
        require.Equal(t, "k", req.URL.Query().Get("token"))
        return jsonResponse(200, `{"c":150,"o":149,"h":151,"l":147,"pc":148}`), nil
    }})

    q, err := p.GetQuote(context.Background(), "AAPL")
    require.NoError(t, err)
    require.Equal(t, 150.0, q.Price)
    require.Equal(t, 148.0, q.PreviousClose)
    require.InDelta(t, 2.0, q.Change, 1e-9)
    require.InDelta(t, 1.3513, q.ChangePercent, 1e-3)
    require.Equal(t, int64(0), q.Volume)
}

func TestGetQuote_ZeroPriceIsNoData(t *testing.T) {
    t.Parallel()

    p := finnhub.New(finnhub.Config{}, &fakeDoer{handle: func(req *http.Request) (*http.Response, error) {
        return jsonResponse(200, `{"c":0,"o":0,"h":0,"l":0,"pc":0}`), nil
    }})

    _, err := p.GetQuote(context.Background(), "NOPE")
    require.Error(t, err)
    require.Equal(t, provider.NoData, provider.KindOf(err))
}

func TestSearch_MapsResults(t *testing.T) {
    t.Parallel()

    body := `{"result":[{"symbol":"AAPL","description":"APPLE INC","type":"Common Stock"},
                        {"symbol":"AAPL","description":"duplicate"},
                        {"symbol":"","description":"anonymous"}]}`
    p := finnhub.New(finnhub.Config{}, &fakeDoer{handle: func(req *http.Request) (*http.Response, error) {
        return jsonResponse(200, body), nil
    }})

    res, err := p.Search(context.Background(), "AAPL")
    require.NoError(t, err)
    require.Len(t, res, 1)
    require.Equal(t, "AAPL", res[0].Symbol)
    require.Equal(t, "APPLE INC", res[0].Name)
    require.Equal(t, "Common Stock", res[0].Type)
    require.Equal(t, "US", res[0].Region)
}

func TestSearch_EmptyIsNoResults(t *testing.T) {
    t.Parallel()

    p := finnhub.New(finnhub.Config{}, &fakeDoer{handle: func(req *http.Request) (*http.Response, error) {
        return jsonResponse(200, `{"result":[]}`), nil
    }})

    _, err := p.Search(context.Background(), "nonexistent123")
    require.Error(t, err)
    require.Equal(t, provider.NoResults, provider.KindOf(err))
}

func TestGetTimeSeries_Unsupported(t *testing.T) {
    t.Parallel()

    p := finnhub.New(finnhub.Config{}, &fakeDoer{handle: func(req *http.Request) (*http.Response, error) {
        t.Fatal("no network call expected")
        return nil, nil
    }})

    _, err := p.GetTimeSeries(context.Background(), "AAPL", provider.GranDaily)
    require.Error(t, err)
    require.Equal(t, provider.NoData, provider.KindOf(err))
}
