package provider_test

import (
    "math"
    "testing"

    "github.com/stretchr/testify/require"

    "marketdash/internal/provider"
)

func f(v float64) *float64 { return &v }

func TestValidPoint(t *testing.T) {
    t.Parallel()

    tests := []struct {
        name                   string
        open, high, low, close *float64
        want                   bool
    }{
        {"all set", f(1), f(2), f(0.5), f(1.5), true},
        {"nil open", nil, f(2), f(0.5), f(1.5), false},
        {"nil close", f(1), f(2), f(0.5), nil, false},
        {"zero open", f(0), f(2), f(0.5), f(1.5), false},
        {"zero close", f(1), f(2), f(0.5), f(0), false},
        {"nan high", f(1), f(math.NaN()), f(0.5), f(1.5), false},
        {"inf low", f(1), f(2), f(math.Inf(1)), f(1.5), false},
        {"zero high and low allowed", f(1), f(0), f(0), f(1.5), true},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            require.Equal(t, tt.want, provider.ValidPoint(tt.open, tt.high, tt.low, tt.close))
        })
    }
}

func TestDedupeBySymbol(t *testing.T) {
    t.Parallel()

    in := []provider.SearchResult{
        {Symbol: "PTT.BK", Name: "PTT (SET)"},
        {Symbol: "AAPL", Name: "Apple"},
        {Symbol: "PTT.BK", Name: "PTT duplicate"},
        {Symbol: "", Name: "nameless"},
        {Symbol: "AAPL", Name: "Apple again"},
    }

    got := provider.DedupeBySymbol(in)

    require.Len(t, got, 2)
    require.Equal(t, "PTT.BK", got[0].Symbol)
    require.Equal(t, "PTT (SET)", got[0].Name, "first occurrence wins")
    require.Equal(t, "AAPL", got[1].Symbol)
    require.Equal(t, "Apple", got[1].Name)
}
