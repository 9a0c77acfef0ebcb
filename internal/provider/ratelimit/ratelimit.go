package ratelimit

import (
    "context"
    "sync"
    "time"

    "marketdash/internal/provider"
)

// MinInterval wraps a provider and enforces a minimum time between calls
// across all three operations. Concurrent calls wait until the interval has
// elapsed since the last call, or return early if the context is canceled.
type MinInterval struct {
    P        provider.Provider
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() provider.ID { return m.P.Name() }

func (m *MinInterval) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
    if err := m.gate(ctx); err != nil {
        return nil, err
    }
    defer m.stamp()
    return m.P.Search(ctx, query)
}

func (m *MinInterval) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
    if err := m.gate(ctx); err != nil {
        return provider.Quote{}, err
    }
    defer m.stamp()
    return m.P.GetQuote(ctx, symbol)
}

func (m *MinInterval) GetTimeSeries(ctx context.Context, symbol string, g provider.Granularity) ([]provider.TimeSeriesPoint, error) {
    if err := m.gate(ctx); err != nil {
        return nil, err
    }
    defer m.stamp()
    return m.P.GetTimeSeries(ctx, symbol, g)
}

func (m *MinInterval) gate(ctx context.Context) error {
    if m.Interval <= 0 {
        return nil
    }
    m.mu.Lock()
    wait := time.Until(m.last.Add(m.Interval))
    m.mu.Unlock()
    if wait <= 0 {
        return nil
    }
    t := time.NewTimer(wait)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}

func (m *MinInterval) stamp() {
    if m.Interval <= 0 {
        return
    }
    m.mu.Lock()
    m.last = time.Now()
    m.mu.Unlock()
}
