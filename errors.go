package ntpsync

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a query, a host or a clock update failed.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindDNSResolutionFailed
	KindSocketCreateFailed
	KindSendFailed
	KindReceiveTimeout
	KindTruncated
	KindInvalidMode
	KindInvalidStratum
	KindOriginMismatch
	KindZeroTransmitTimestamp
	KindPermissionDenied
	KindPlatformError
	KindInvalidHostnameSyntax
)

var kindNames = [...]string{
	KindNone:                  "none",
	KindDNSResolutionFailed:   "dns resolution failed",
	KindSocketCreateFailed:    "socket create failed",
	KindSendFailed:            "send failed",
	KindReceiveTimeout:        "receive timeout",
	KindTruncated:             "truncated response",
	KindInvalidMode:           "invalid mode",
	KindInvalidStratum:        "invalid stratum",
	KindOriginMismatch:        "origin timestamp mismatch",
	KindZeroTransmitTimestamp: "zero transmit timestamp",
	KindPermissionDenied:      "permission denied",
	KindPlatformError:         "platform error",
	KindInvalidHostnameSyntax: "invalid hostname",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// label is the metric label value of k.
func (k ErrorKind) label() string {
	switch k {
	case KindNone:
		return "ok"
	case KindDNSResolutionFailed:
		return "dns"
	case KindSocketCreateFailed:
		return "socket"
	case KindSendFailed:
		return "send"
	case KindReceiveTimeout:
		return "timeout"
	case KindTruncated:
		return "truncated"
	case KindInvalidMode:
		return "mode"
	case KindInvalidStratum:
		return "stratum"
	case KindOriginMismatch:
		return "origin"
	case KindZeroTransmitTimestamp:
		return "zero_xmt"
	case KindPermissionDenied:
		return "eperm"
	case KindPlatformError:
		return "platform"
	case KindInvalidHostnameSyntax:
		return "hostname"
	}
	return "unknown"
}

// Error carries the kind of a failure, the host it happened on (if any)
// and the underlying cause.
type Error struct {
	Kind ErrorKind
	Host string
	Err  error
}

func newError(kind ErrorKind, host string, err error) *Error {
	return &Error{Kind: kind, Host: host, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Host != "" {
		msg = e.Host + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, KindNone for
// a nil error and KindPlatformError for anything unclassified.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPlatformError
}

var (
	// ErrServersExhausted is returned when neither the custom host nor any
	// pool host produced a time that could be applied.
	ErrServersExhausted = errors.New("all ntp servers failed")

	errNoSample = errors.New("no successful sample")
)

const remediation = "check network connectivity, " +
	"that the firewall allows UDP port 123, " +
	"and that the process may set the system clock"

// Remediation is the hint shown to users after ErrServersExhausted.
func Remediation() string {
	return remediation
}

func errShortPacket(n int) error {
	return fmt.Errorf("got %d bytes, want %d", n, PacketSize)
}
