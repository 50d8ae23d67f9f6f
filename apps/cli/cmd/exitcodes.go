package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/ht/packages/http"
)

// Exit codes for ht CLI
const (
	// ExitSuccess indicates the exchange completed, whatever the HTTP status
	ExitSuccess = 0

	// ExitError indicates a malformed item, conflicting content or a failed send
	ExitError = 1

	// ExitTimeout indicates the request timed out
	ExitTimeout = 2

	// ExitTooManyRedirects indicates --max-redirects was exceeded
	ExitTooManyRedirects = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// usageError marks bad flags or arguments. It does not unwrap, so the
// error output has no cause list.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(err error) error {
	return &usageError{msg: err.Error()}
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}

	var transportErr *http.TransportError
	if errors.As(err, &transportErr) {
		switch transportErr.Kind {
		case http.KindTimeout:
			return ExitTimeout
		case http.KindRedirect:
			return ExitTooManyRedirects
		}
	}
	return ExitError
}
