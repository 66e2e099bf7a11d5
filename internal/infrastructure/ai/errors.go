package ai

import (
	"fmt"
	"net/http"

	"maintrack/internal/ports"
)

// upstreamError maps a provider HTTP status to the shared upstream sentinels.
func upstreamError(provider string, status int, cause error) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %v", provider, ports.ErrUpstreamRateLimited, cause)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w: %v", provider, ports.ErrUpstreamPaymentRequired, cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %v", provider, ports.ErrUpstreamNotConfigured, cause)
	default:
		return fmt.Errorf("%s: %w: %v", provider, ports.ErrUpstreamFailed, cause)
	}
}

func notConfigured(provider string) error {
	return fmt.Errorf("%s: %w", provider, ports.ErrUpstreamNotConfigured)
}

// emptyReply is returned when the provider answers without any text.
func emptyReply(provider string) error {
	return fmt.Errorf("%s: %w: empty completion", provider, ports.ErrUpstreamFailed)
}
