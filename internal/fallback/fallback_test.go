package fallback_test

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "marketdash/internal/fallback"
    "marketdash/internal/provider"
)

func TestRun_FirstSuccessWins(t *testing.T) {
    t.Parallel()

    calls := 0
    chain := fallback.Chain[string]{
        {Provider: "a", Run: func(ctx context.Context) (string, error) { calls++; return "from-a", nil }},
        {Provider: "b", Run: func(ctx context.Context) (string, error) { calls++; return "from-b", nil }},
    }

    res, err := fallback.Run(context.Background(), zap.NewNop(), chain)
    require.NoError(t, err)
    require.Equal(t, provider.ID("a"), res.Provider)
    require.Equal(t, "from-a", res.Data)
    require.Equal(t, 1, calls, "second provider must not be invoked")
}

func TestRun_FallsThroughInOrder(t *testing.T) {
    t.Parallel()

    var order []string
    chain := fallback.Chain[int]{
        {Provider: "a", Run: func(ctx context.Context) (int, error) {
            order = append(order, "a")
            return 0, provider.Errf("a", provider.UpstreamUnavailable, "down")
        }},
        {Provider: "b", Run: func(ctx context.Context) (int, error) {
            order = append(order, "b")
            return 0, provider.Errf("b", provider.NoData, "empty")
        }},
        {Provider: "c", Run: func(ctx context.Context) (int, error) {
            order = append(order, "c")
            return 42, nil
        }},
    }

    res, err := fallback.Run(context.Background(), zap.NewNop(), chain)
    require.NoError(t, err)
    require.Equal(t, provider.ID("c"), res.Provider)
    require.Equal(t, 42, res.Data)
    require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRun_AllFail_SurfacesLastError(t *testing.T) {
    t.Parallel()

    first := provider.Errf("a", provider.UpstreamUnavailable, "down")
    last := provider.Errf("b", provider.NoResults, "nothing matched")
    chain := fallback.Chain[string]{
        {Provider: "a", Run: func(ctx context.Context) (string, error) { return "", first }},
        {Provider: "b", Run: func(ctx context.Context) (string, error) { return "", last }},
    }

    _, err := fallback.Run(context.Background(), zap.NewNop(), chain)
    require.Error(t, err)
    require.Equal(t, last, err)
    require.Equal(t, provider.NoResults, provider.KindOf(err))
}

func TestRun_EmptyChain(t *testing.T) {
    t.Parallel()

    _, err := fallback.Run(context.Background(), zap.NewNop(), fallback.Chain[string]{})
    require.Error(t, err)
    require.Equal(t, provider.NoProvidersConfigured, provider.KindOf(err))
}

func TestRun_NilLoggerTolerated(t *testing.T) {
    t.Parallel()

    chain := fallback.Chain[string]{
        {Provider: "a", Run: func(ctx context.Context) (string, error) { return "", errors.New("boom") }},
        {Provider: "b", Run: func(ctx context.Context) (string, error) { return "ok", nil }},
    }
    res, err := fallback.Run(context.Background(), nil, chain)
    require.NoError(t, err)
    require.Equal(t, "ok", res.Data)
}
