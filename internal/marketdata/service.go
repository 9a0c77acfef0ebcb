// Package marketdata fronts the provider chains. It owns the per-operation
// fallback order, the force-provider bypass and the batch fan-out; everything
// here is request-local, nothing is cached between calls.
package marketdata

import (
    "context"
    "sync"

    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "marketdash/internal/fallback"
    "marketdash/internal/provider"
)

// ChainOrder is the declared provider order per operation. Time series chains
// are shorter on purpose: not every upstream serves charts worth falling back
// to.
type ChainOrder struct {
    Search     []provider.ID
    Quote      []provider.ID
    TimeSeries []provider.ID
}

// DefaultChainOrder mirrors the dashboard's production ordering.
func DefaultChainOrder() ChainOrder {
    return ChainOrder{
        Search:     []provider.ID{provider.Yahoo, provider.Finnhub, provider.TwelveData},
        Quote:      []provider.ID{provider.Yahoo, provider.Finnhub, provider.TwelveData},
        TimeSeries: []provider.ID{provider.Yahoo, provider.TwelveData},
    }
}

type Service struct {
    log       *zap.Logger
    order     ChainOrder
    providers map[provider.ID]provider.Provider
}

func New(log *zap.Logger, order ChainOrder, providers ...provider.Provider) *Service {
    if log == nil {
        log = zap.NewNop()
    }
    byID := make(map[provider.ID]provider.Provider, len(providers))
    for _, p := range providers {
        byID[p.Name()] = p
    }
    return &Service{log: log, order: order, providers: byID}
}

// Search runs the search chain, or exactly one adapter when force is set.
func (s *Service) Search(ctx context.Context, query string, force provider.ID) (fallback.Result[[]provider.SearchResult], error) {
    if force != "" {
        p, err := s.forced(force)
        if err != nil {
            return fallback.Result[[]provider.SearchResult]{}, err
        }
        data, err := p.Search(ctx, query)
        if err != nil {
            return fallback.Result[[]provider.SearchResult]{}, err
        }
        return fallback.Result[[]provider.SearchResult]{Provider: force, Data: data}, nil
    }
    chain := make(fallback.Chain[[]provider.SearchResult], 0, len(s.order.Search))
    for _, id := range s.order.Search {
        p, ok := s.providers[id]
        if !ok {
            continue
        }
        chain = append(chain, fallback.Call[[]provider.SearchResult]{
            Provider: id,
            Run: func(ctx context.Context) ([]provider.SearchResult, error) {
                return p.Search(ctx, query)
            },
        })
    }
    return fallback.Run(ctx, s.log, chain)
}

// Quote runs the quote chain, or exactly one adapter when force is set.
func (s *Service) Quote(ctx context.Context, symbol string, force provider.ID) (fallback.Result[provider.Quote], error) {
    if force != "" {
        p, err := s.forced(force)
        if err != nil {
            return fallback.Result[provider.Quote]{}, err
        }
        data, err := p.GetQuote(ctx, symbol)
        if err != nil {
            return fallback.Result[provider.Quote]{}, err
        }
        return fallback.Result[provider.Quote]{Provider: force, Data: data}, nil
    }
    return fallback.Run(ctx, s.log, s.quoteChain(symbol))
}

// TimeSeries runs the (shorter) series chain, or exactly one adapter when
// force is set.
func (s *Service) TimeSeries(ctx context.Context, symbol string, g provider.Granularity, force provider.ID) (fallback.Result[[]provider.TimeSeriesPoint], error) {
    if force != "" {
        p, err := s.forced(force)
        if err != nil {
            return fallback.Result[[]provider.TimeSeriesPoint]{}, err
        }
        data, err := p.GetTimeSeries(ctx, symbol, g)
        if err != nil {
            return fallback.Result[[]provider.TimeSeriesPoint]{}, err
        }
        return fallback.Result[[]provider.TimeSeriesPoint]{Provider: force, Data: data}, nil
    }
    chain := make(fallback.Chain[[]provider.TimeSeriesPoint], 0, len(s.order.TimeSeries))
    for _, id := range s.order.TimeSeries {
        p, ok := s.providers[id]
        if !ok {
            continue
        }
        chain = append(chain, fallback.Call[[]provider.TimeSeriesPoint]{
            Provider: id,
            Run: func(ctx context.Context) ([]provider.TimeSeriesPoint, error) {
                return p.GetTimeSeries(ctx, symbol, g)
            },
        })
    }
    return fallback.Run(ctx, s.log, chain)
}

// BatchQuotes runs one quote chain per symbol concurrently. Symbols whose
// whole chain fails are dropped from the result; an all-failed batch is an
// empty map, not an error.
func (s *Service) BatchQuotes(ctx context.Context, symbols []string) (map[string]provider.Quote, error) {
    var (
        mu  sync.Mutex
        out = make(map[string]provider.Quote, len(symbols))
    )
    g, ctx := errgroup.WithContext(ctx)
    for _, sym := range symbols {
        sym := sym
        g.Go(func() error {
            res, err := fallback.Run(ctx, s.log, s.quoteChain(sym))
            if err != nil {
                s.log.Warn("batch symbol dropped", zap.String("symbol", sym), zap.Error(err))
                return nil
            }
            mu.Lock()
            out[sym] = res.Data
            mu.Unlock()
            return nil
        })
    }
    _ = g.Wait()
    return out, nil
}

func (s *Service) quoteChain(symbol string) fallback.Chain[provider.Quote] {
    chain := make(fallback.Chain[provider.Quote], 0, len(s.order.Quote))
    for _, id := range s.order.Quote {
        p, ok := s.providers[id]
        if !ok {
            continue
        }
        chain = append(chain, fallback.Call[provider.Quote]{
            Provider: id,
            Run: func(ctx context.Context) (provider.Quote, error) {
                return p.GetQuote(ctx, symbol)
            },
        })
    }
    return chain
}

func (s *Service) forced(id provider.ID) (provider.Provider, error) {
    p, ok := s.providers[id]
    if !ok {
        return nil, provider.Errf(id, provider.InvalidRequest, "unknown provider %q", string(id))
    }
    return p, nil
}
