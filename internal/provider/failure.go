package provider

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"

	"goldfeed/internal/httpx"
)

// Kind classifies why a provider could not produce a result.
type Kind string

const (
	KindTransport   Kind = "transport"   // network error, timeout, non-2xx
	KindSchema      Kind = "schema"      // well-formed response without a usable value
	KindUnsupported Kind = "unsupported" // upstream has no such capability
	KindContract    Kind = "contract"    // adapter panicked or returned an invalid value
)

// Failure is the single error type providers return. The orchestrator treats
// every Failure the same way: record it and move on.
type Failure struct {
	Provider string
	Kind     Kind
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Transport wraps a network level error.
func Transport(provider string, err error) *Failure {
	return &Failure{Provider: provider, Kind: KindTransport, Err: err}
}

// Schema reports a response that did not carry the required fields.
func Schema(provider string, format string, args ...any) *Failure {
	return &Failure{Provider: provider, Kind: KindSchema, Err: errors.Errorf(format, args...)}
}

// Unsupported reports a capability the upstream does not offer.
func Unsupported(provider, what string) *Failure {
	return &Failure{Provider: provider, Kind: KindUnsupported, Err: errors.Errorf("%s not supported", what)}
}

// Contract reports an adapter that broke the Provider contract.
func Contract(provider string, err error) *Failure {
	return &Failure{Provider: provider, Kind: KindContract, Err: err}
}

// AsFailure returns err as a *Failure, classifying foreign errors as
// transport failures.
func AsFailure(provider string, err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if stderrors.As(err, &f) {
		return f
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return Transport(provider, errors.Wrap(err, "request aborted"))
	}
	return Transport(provider, err)
}

// IsKind reports whether err is a Failure of kind k.
func IsKind(err error, k Kind) bool {
	var f *Failure
	return stderrors.As(err, &f) && f.Kind == k
}

// FromHTTP classifies an httpx error: undecodable bodies are schema
// failures, everything else is transport.
func FromHTTP(provider string, err error) *Failure {
	var de *httpx.DecodeError
	if stderrors.As(err, &de) {
		return &Failure{Provider: provider, Kind: KindSchema, Err: errors.Wrap(de.Err, "malformed payload")}
	}
	return AsFailure(provider, err)
}
