// Package fallback runs an ordered chain of provider calls for one operation,
// returning the first success. Fallback order and failure semantics live in an
// explicit data structure instead of inline error handling.
package fallback

import (
    "context"

    "go.uber.org/zap"

    "marketdash/internal/provider"
)

// Call is one provider attempt in a chain.
type Call[T any] struct {
    Provider provider.ID
    Run      func(ctx context.Context) (T, error)
}

// Chain is the ordered list of calls for one operation. Built per request,
// never persisted.
type Chain[T any] []Call[T]

// Result carries the winning call's data and which provider produced it.
type Result[T any] struct {
    Provider provider.ID
    Data     T
}

// Run tries each call in declared order and returns the first success. At most
// one call is in flight at a time. Intermediate failures are logged and
// discarded; only the last error is surfaced when every call fails. An empty
// chain fails with NoProvidersConfigured without touching the network.
func Run[T any](ctx context.Context, log *zap.Logger, chain Chain[T]) (Result[T], error) {
    var zero Result[T]
    if len(chain) == 0 {
        return zero, provider.Errf("", provider.NoProvidersConfigured, "no providers configured")
    }

    var lastErr error
    for _, call := range chain {
        data, err := call.Run(ctx)
        if err == nil {
            return Result[T]{Provider: call.Provider, Data: data}, nil
        }
        lastErr = err
        if log != nil {
            log.Warn("provider failed, trying next",
                zap.String("provider", string(call.Provider)),
                zap.String("kind", string(provider.KindOf(err))),
                zap.Error(err))
        }
    }
    return zero, lastErr
}
