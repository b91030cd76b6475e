package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// TransportErrorKind tells why a request never produced an HTTP response.
type TransportErrorKind int

const (
	TransportOther TransportErrorKind = iota
	TransportTimeout
	TransportConnectionRefused
	TransportDNS
	TransportTLS
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnectionRefused:
		return "connection refused"
	case TransportDNS:
		return "dns failure"
	case TransportTLS:
		return "tls failure"
	default:
		return "connection error"
	}
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Kind TransportErrorKind
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	return e.Kind == TransportTimeout
}

// IsTransportError reports whether err (or anything it wraps) is a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func classifyTransportError(url string, err error) error {
	return &TransportError{
		Kind: transportKind(err),
		URL:  url,
		Err:  err,
	}
}

func transportKind(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return TransportTimeout
		}
		return TransportDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return TransportConnectionRefused
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) || errors.As(err, &recordErr) {
		return TransportTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}

	return TransportOther
}
