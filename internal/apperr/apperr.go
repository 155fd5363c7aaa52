// Package apperr is the gateway's single error taxonomy. Every failure that
// reaches the router is one of the kinds below, and HTTPStatus maps it to the
// status code the client sees.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindMalformedRequest: body not UTF-8, not well-formed XML, missing <prop>
	// or an invalid Depth header.
	KindMalformedRequest
	// KindUpstreamTransport: DNS, connect, TLS or timeout failure reaching an upstream.
	KindUpstreamTransport
	// KindUpstreamProtocol: the upstream answered with a non-2xx status.
	KindUpstreamProtocol
	// KindUnknownCalendar: the path segment is not in the registry.
	KindUnknownCalendar
	// KindInternalRewrite: the upstream XML could not be safely transformed.
	KindInternalRewrite
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "MalformedRequest"
	case KindUpstreamTransport:
		return "UpstreamTransportError"
	case KindUpstreamProtocol:
		return "UpstreamProtocolError"
	case KindUnknownCalendar:
		return "UnknownCalendar"
	case KindInternalRewrite:
		return "InternalRewriteError"
	default:
		return "Unknown"
	}
}

// Error carries the kind plus whatever is needed to log the failure.
type Error struct {
	Kind Kind
	Op   string
	// Calendar is the registry path segment involved, if any.
	Calendar string
	// UpstreamStatus is the status line returned by the upstream for
	// KindUpstreamProtocol.
	UpstreamStatus string
	Err            error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Calendar != "" {
		msg += " (calendar " + e.Calendar + ")"
	}
	if e.UpstreamStatus != "" {
		msg += ": upstream status " + e.UpstreamStatus
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Malformed(op string, err error) *Error {
	return &Error{Kind: KindMalformedRequest, Op: op, Err: err}
}

func Malformedf(op, format string, args ...any) *Error {
	return Malformed(op, fmt.Errorf(format, args...))
}

// FromTransport wraps an error returned by the HTTP client.
func FromTransport(op, calendar string, err error) *Error {
	return &Error{Kind: KindUpstreamTransport, Op: op, Calendar: calendar, Err: err}
}

// FromStatus builds the error for an upstream that answered with a non-2xx status.
func FromStatus(op, calendar, status string, body []byte) *Error {
	e := &Error{Kind: KindUpstreamProtocol, Op: op, Calendar: calendar, UpstreamStatus: status}
	if len(body) > 0 {
		e.Err = errors.New(snippet(body))
	}
	return e
}

func UnknownCalendar(op, segment string) *Error {
	return &Error{Kind: KindUnknownCalendar, Op: op, Calendar: segment}
}

func Rewrite(op, calendar string, err error) *Error {
	return &Error{Kind: KindInternalRewrite, Op: op, Calendar: calendar, Err: err}
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// HTTPStatus maps any error to the status code sent to the client.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMalformedRequest:
		return http.StatusBadRequest
	case KindUpstreamTransport:
		return http.StatusBadGateway
	case KindUnknownCalendar:
		return http.StatusNotFound
	case KindUpstreamProtocol, KindInternalRewrite:
		return http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Body is the short diagnostic text written with the status code.
func Body(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusText(HTTPStatus(err))
	}
	switch e.Kind {
	case KindMalformedRequest:
		if e.Err != nil {
			return "malformed request: " + e.Err.Error()
		}
		return "malformed request"
	case KindUnknownCalendar:
		return "unknown calendar: " + e.Calendar
	case KindUpstreamProtocol:
		return fmt.Sprintf("upstream %s answered %s", e.Calendar, e.UpstreamStatus)
	case KindUpstreamTransport:
		return "upstream " + e.Calendar + " unreachable"
	case KindInternalRewrite:
		return "could not rewrite upstream response for " + e.Calendar
	}
	return http.StatusText(HTTPStatus(err))
}

const maxSnippet = 256

func snippet(body []byte) string {
	if len(body) > maxSnippet {
		return string(body[:maxSnippet]) + "..."
	}
	return string(body)
}
