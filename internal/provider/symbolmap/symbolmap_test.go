package symbolmap_test

import (
    "testing"

    "github.com/stretchr/testify/require"

    "marketdash/internal/provider"
    "marketdash/internal/provider/symbolmap"
)

func TestMap_YahooRules(t *testing.T) {
    t.Parallel()

    cases := []struct {
        in   string
        want string
    }{
        {"XAU/USD", "GC=F"},
        {"XAG/USD", "SI=F"},
        {"BTC/USD", "BTC-USD"},
        {"ETH/USD", "ETH-USD"},
        {"EUR/USD", "EURUSD=X"},
        {"USD/JPY", "USDJPY=X"},
        {"AAPL", "AAPL"},
        {"PTT.BK", "PTT.BK"},
        {"", ""},
    }
    for _, tc := range cases {
        require.Equal(t, tc.want, symbolmap.Map(tc.in, provider.Yahoo), "input %q", tc.in)
    }
}

func TestMap_OtherProvidersPassThrough(t *testing.T) {
    t.Parallel()

    for _, id := range []provider.ID{provider.Finnhub, provider.TwelveData} {
        require.Equal(t, "EUR/USD", symbolmap.Map("EUR/USD", id))
        require.Equal(t, "AAPL", symbolmap.Map("AAPL", id))
    }
}

func TestMap_Deterministic(t *testing.T) {
    t.Parallel()

    inputs := []string{"XAU/USD", "EUR/USD", "AAPL", "weird//sym", ""}
    for _, in := range inputs {
        for _, id := range []provider.ID{provider.Yahoo, provider.Finnhub, provider.TwelveData} {
            first := symbolmap.Map(in, id)
            for i := 0; i < 3; i++ {
                require.Equal(t, first, symbolmap.Map(in, id))
            }
        }
    }
}
