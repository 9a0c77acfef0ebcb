package provider

import (
    "errors"
    "fmt"
)

// ErrorKind classifies adapter and orchestrator failures. The HTTP layer maps
// kinds onto status codes; the core only classifies.
type ErrorKind string

const (
    NoResults             ErrorKind = "no_results"
    NoData                ErrorKind = "no_data"
    UpstreamUnavailable   ErrorKind = "upstream_unavailable"
    NoProvidersConfigured ErrorKind = "no_providers_configured"
    InvalidRequest        ErrorKind = "invalid_request"
)

// ProviderError is the typed failure every adapter operation returns. Raw
// upstream shapes never leak past the adapter boundary; this is all a caller
// sees of a failed provider call.
type ProviderError struct {
    Kind     ErrorKind
    Provider ID
    Msg      string
    Err      error
}

func (e *ProviderError) Error() string {
    msg := e.Msg
    if msg == "" && e.Err != nil {
        msg = e.Err.Error()
    }
    if e.Provider != "" {
        return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, msg)
    }
    return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Errf builds a ProviderError with a formatted message.
func Errf(p ID, kind ErrorKind, format string, args ...any) *ProviderError {
    return &ProviderError{Kind: kind, Provider: p, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr builds a ProviderError around an underlying transport/parse error.
func WrapErr(p ID, kind ErrorKind, err error) *ProviderError {
    return &ProviderError{Kind: kind, Provider: p, Err: err}
}

// KindOf extracts the error kind, defaulting to UpstreamUnavailable for
// untyped errors so transport failures classify conservatively.
func KindOf(err error) ErrorKind {
    var pe *ProviderError
    if errors.As(err, &pe) {
        return pe.Kind
    }
    return UpstreamUnavailable
}
