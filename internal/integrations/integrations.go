// Package integrations holds the error taxonomy shared by the external
// ticket/CRM system clients.
package integrations

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no credential record exists for the
// integration the router selected.
var ErrNotConfigured = errors.New("integration not configured")

// ErrAuthExpired indicates the integration credential is expired and could
// not be refreshed.
var ErrAuthExpired = errors.New("integration authorization expired")

// RequestError reports a 4xx/5xx from a remote ticket/CRM system. Body is
// the upstream error body verbatim, for user-visible reporting.
type RequestError struct {
	System     string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed (status %d): %s", e.System, e.StatusCode, e.Body)
}
