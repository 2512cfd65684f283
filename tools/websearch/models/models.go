package models

import "fmt"

// Hit is one raw result returned by a web search provider. Hits are
// transient: they only live for the duration of a single discovery call.
type Hit struct {
	Title     string
	URL       string
	Snippet   string
	Published string
	Source    string
}

// ProviderError is the single error kind all provider failures collapse
// into: network errors, quota/auth rejections and malformed responses.
// Cause, when set, preserves the underlying error for errors.Is checks
// (in particular context cancellation detection).
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Errf builds a ProviderError with a formatted message.
func Errf(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// Wrapf builds a ProviderError that keeps err as its cause.
func Wrapf(provider string, err error, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  fmt.Sprintf(format, args...) + ": " + err.Error(),
		Cause:    err,
	}
}
