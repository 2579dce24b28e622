// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §3 Connection context (HTTP/1), §9 Design notes
// (per-connection owner of buffers & state replaces reference-counted cells)
//

package h1

// ConnState names where a connection currently sits in the dispatcher's
// state machine (spec.md §4.5).
type ConnState int

const (
	StateReadingHead ConnState = iota
	StateExpectingContinue
	StateServingBody
	StateDrainingResponse
	StateKeepAlive
	StateUpgrade
	StateShutdown
)

func (s ConnState) String() string {
	switch s {
	case StateReadingHead:
		return "ReadingHead"
	case StateExpectingContinue:
		return "ExpectingContinue"
	case StateServingBody:
		return "ServingBody"
	case StateDrainingResponse:
		return "DrainingResponse"
	case StateKeepAlive:
		return "KeepAlive"
	case StateUpgrade:
		return "Upgrade"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// ConnContext is the per-connection state a [Dispatcher] owns: no
// sharing, no locks, field-wise ownership (spec.md §9). It holds the
// current state, the head under construction, and the flags tracking
// Expect/Upgrade and reusability.
type ConnContext struct {
	State ConnState

	// Head is the materialized head of the request currently under
	// construction or being served. It is nil outside ReadingHead's
	// successful completion until Reset.
	Head *Head

	// RequestContentLength and RequestChunked capture the body framing
	// the decoder derived for Head; they outlive the raw decode buffer
	// once Head itself has been materialized out of byte offsets.
	RequestContentLength int64
	RequestChunked       bool

	// KeepAlive reflects whether the connection may be returned to
	// ReadingHead after the current response is fully written. It starts
	// true for HTTP/1.1 and is cleared by Connection: close, a fatal
	// error, response truncation, or unconsumed-body overflow.
	KeepAlive bool

	// ExpectContinuePending is set once the decoder reports Expect:
	// 100-continue and cleared once the interim response decision (100
	// or an early rejection) has been emitted.
	ExpectContinuePending bool

	// UpgradeRequested is set when the handler's response carries status
	// 101, signalling the dispatcher to hand off the connection after
	// flushing.
	UpgradeRequested bool

	// RequestBytesDrained counts bytes discarded while draining an
	// unconsumed request body after the handler finished early, capped
	// by Config.MaxDiscardBytes (spec.md §4.5 tie-breaks).
	RequestBytesDrained int64

	// ResponseWritten becomes true after the first byte of a response
	// has been appended to the write buffer; it governs whether a late
	// error may still produce a synthesized 400/500 or must instead just
	// terminate the connection (spec.md §7).
	ResponseWritten bool
}

// NewConnContext returns a fresh ConnContext in the initial ReadingHead
// state.
func NewConnContext() *ConnContext {
	return &ConnContext{State: StateReadingHead, KeepAlive: true}
}

// Reset restores the context to ReadingHead for the next request on a
// reused connection, clearing per-request fields but preserving
// KeepAlive's steady-state default.
func (c *ConnContext) Reset() {
	c.State = StateReadingHead
	c.Head = nil
	c.RequestContentLength = 0
	c.RequestChunked = false
	c.ExpectContinuePending = false
	c.UpgradeRequested = false
	c.RequestBytesDrained = 0
	c.ResponseWritten = false
}
