// Package symbolmap translates user-facing instrument symbols into each
// provider's expected spelling. Mapping is total: every input produces exactly
// one output and unknown symbols pass through unchanged apart from the
// provider's separator rules.
package symbolmap

import (
    "strings"

    "marketdash/internal/provider"
)

// Yahoo has dedicated tickers for the metals and major crypto pairs; plain
// currency pairs become the "EURUSD=X" form.
var yahooPairs = map[string]string{
    "XAU/USD": "GC=F", // gold futures
    "XAG/USD": "SI=F", // silver futures
    "BTC/USD": "BTC-USD",
    "ETH/USD": "ETH-USD",
}

// Map returns the provider-specific spelling of a generic symbol.
func Map(symbol string, target provider.ID) string {
    switch target {
    case provider.Yahoo:
        if mapped, ok := yahooPairs[symbol]; ok {
            return mapped
        }
        if strings.Contains(symbol, "/") {
            return strings.ReplaceAll(symbol, "/", "") + "=X"
        }
        return symbol
    default:
        // Finnhub and TwelveData both accept the generic spelling.
        return symbol
    }
}
