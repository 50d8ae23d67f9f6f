package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
)

// ErrConflictingContent matches every *ContentError.
var ErrConflictingContent = errors.New("conflicting request content")

// ContentError reports items and flags that cannot share one request body.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return e.Reason
}

func (e *ContentError) Is(target error) bool {
	return target == ErrConflictingContent
}

func conflict(format string, args ...any) error {
	return &ContentError{Reason: fmt.Sprintf(format, args...)}
}

// TransportErrorKind classifies a failed send.
type TransportErrorKind int

const (
	KindOther TransportErrorKind = iota
	KindConnect
	KindTLS
	KindTimeout
	KindRedirect
)

func (k TransportErrorKind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindTLS:
		return "tls"
	case KindTimeout:
		return "timeout"
	case KindRedirect:
		return "redirect"
	default:
		return "other"
	}
}

// TransportError wraps every failure of Client.Send. The cause chain is
// reachable through errors.Unwrap.
type TransportError struct {
	URL  string
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error sending request for url (%s): %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type connectError struct {
	err error
}

func (e *connectError) Error() string {
	return "error trying to connect: " + e.err.Error()
}

func (e *connectError) Unwrap() error {
	return e.err
}

type redirectError struct {
	max int
}

func (e *redirectError) Error() string {
	return fmt.Sprintf("too many redirects (exceeded %d)", e.max)
}

type timeoutError struct {
	err error
}

func (e *timeoutError) Error() string {
	return "operation timed out: " + e.err.Error()
}

func (e *timeoutError) Unwrap() error {
	return e.err
}

func newTransportError(target string, err error) *TransportError {
	timedOut := isTimeout(err)

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	te := &TransportError{URL: target, Err: err}
	var redirect *redirectError
	switch {
	case errors.As(err, &redirect):
		te.Kind = KindRedirect
	case timedOut:
		te.Kind = KindTimeout
		te.Err = &timeoutError{err: err}
	case isCertificateError(err):
		te.Kind = KindTLS
		te.Err = &connectError{err: err}
	case isConnectError(err):
		te.Kind = KindConnect
		te.Err = &connectError{err: err}
	}
	return te
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isCertificateError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func isConnectError(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
