package domain

import (
	"context"
	"errors"
	"fmt"
)

// ProviderErrorKind classifies an outbound provider failure.
type ProviderErrorKind string

const (
	KindConfig    ProviderErrorKind = "config"
	KindTransport ProviderErrorKind = "transport"
	KindTimeout   ProviderErrorKind = "timeout"
	KindAuth      ProviderErrorKind = "auth"
	KindDomain    ProviderErrorKind = "domain"
	KindUpstream  ProviderErrorKind = "upstream"
	KindParse     ProviderErrorKind = "parse"
)

// ProviderError is the typed failure every adapter returns instead of
// leaking raw transport errors.
type ProviderError struct {
	Provider   string
	Kind       ProviderErrorKind
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(provider, op string, kind ProviderErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first ProviderError in the chain. A bare
// context deadline is reported as a timeout; anything else yields "".
func KindOf(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return ""
}

func IsAuth(err error) bool { return KindOf(err) == KindAuth }

func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

func IsProviderDomain(err error) bool { return KindOf(err) == KindDomain }

func IsConfig(err error) bool { return KindOf(err) == KindConfig }

// ProviderMessage returns the provider-supplied text of a domain rejection.
func ProviderMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
