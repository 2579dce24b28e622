// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §7 Error handling design
// Adapted from: _examples/bassosimone-nop/errclassifier.go (typed, comparable sentinel style)
//

package h1

import "fmt"

// ProtocolError reports a malformed request or a forbidden framing
// combination discovered while decoding. It is fatal to the connection:
// per spec.md §7 it surfaces as 400 Bad Request if nothing has been
// written yet, otherwise the connection is simply torn down.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "h1: protocol error: " + e.Reason }

// NewProtocolError constructs a [ProtocolError] with a formatted reason.
func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// HeaderOverflowError is returned when a request carries more header
// fields than the decoder's configured bound. Per spec.md §9 this maps
// to 431, not 400.
type HeaderOverflowError struct {
	Limit int
}

func (e *HeaderOverflowError) Error() string {
	return fmt.Sprintf("h1: header count exceeds limit of %d", e.Limit)
}

// IOError wraps a read or write failure on the underlying stream. The
// connection is always terminated; the dispatcher logs it via the
// observability hook rather than surfacing any response bytes.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "h1: i/o error during " + e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// ServiceError wraps an error returned by the handler service. It maps to
// 500 Internal Server Error if nothing has been written yet; otherwise the
// connection is terminated without further bytes. A ServiceError never
// prevents the dispatcher from serving the next connection.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return "h1: service error: " + e.Err.Error() }
func (e *ServiceError) Unwrap() error { return e.Err }

// BodyError reports a failure reading or writing a body stream. On the
// request side it is handed to the handler's body iterator; on the
// response side it is always fatal to the connection since framing
// cannot be recovered mid-body.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string { return "h1: body error: " + e.Err.Error() }
func (e *BodyError) Unwrap() error { return e.Err }

// BuilderError is fatal at worker startup: it crashes the worker that
// produced it, per spec.md §4.1.
type BuilderError struct {
	Err error
}

func (e *BuilderError) Error() string { return "h1: builder error: " + e.Err.Error() }
func (e *BuilderError) Unwrap() error { return e.Err }
