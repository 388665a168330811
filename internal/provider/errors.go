package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded means the daily limit was reached before any network
	// call was attempted.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrUnknownProvider means the id is not in the registry.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProviderError is a non-2xx or malformed response from a proxy endpoint.
type ProviderError struct {
	ProviderID string
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s returned status %d: %s", e.ProviderID, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("provider %s returned malformed response: %s", e.ProviderID, e.Detail)
}

// NetworkError is a transport-level failure reaching a proxy endpoint.
type NetworkError struct {
	ProviderID string
	Err        error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("provider %s unreachable: %v", e.ProviderID, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
