package provider

import (
	"fmt"
	"time"
)

// ProviderName uniquely identifies a remote catalog service.
type ProviderName string

// Known provider names.
const (
	NameDiscogs ProviderName = "discogs"
)

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameDiscogs:
		return "Discogs"
	default:
		return string(n)
	}
}

// HelpURL returns where a user obtains a personal access token.
func (n ProviderName) HelpURL() string {
	switch n {
	case NameDiscogs:
		return "https://www.discogs.com/settings/developers"
	default:
		return ""
	}
}

// ErrProviderUnavailable indicates a transient failure (rate-limited, timeout, server error).
type ErrProviderUnavailable struct {
	Provider   ProviderName
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the provider has no record for the requested ID.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}

// ErrAuthRequired indicates the provider needs a token but none is configured
// or the configured one was rejected.
type ErrAuthRequired struct {
	Provider ProviderName
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: access token missing or rejected", e.Provider)
}

// ErrRequestRejected indicates the provider refused a well-formed request,
// e.g. a wantlist mutation on a release that cannot be added.
type ErrRequestRejected struct {
	Provider   ProviderName
	StatusCode int
	Message    string
}

func (e *ErrRequestRejected) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider %s: request rejected (HTTP %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("provider %s: request rejected (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}
