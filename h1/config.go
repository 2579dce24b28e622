// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §5 Concurrency & resource model (timeouts), §4.5
// (back-pressure watermarks), §9 (header index array size configurable)
// Adapted from: _examples/bassosimone-nop/config.go (plain struct + functional defaults)
//

package h1

import "time"

// Config bounds a [Dispatcher]'s behavior: header limits, back-pressure
// watermarks, and timeouts. All fields have sane defaults via
// [NewConfig]; zero-value Config is not meant to be used directly.
type Config struct {
	// MaxHeaders bounds header fields per request (spec.md §9, default 96).
	MaxHeaders int

	// ReadBufferHighWaterMark is the read-buffer occupancy, in bytes,
	// above which the dispatcher disables read interest until the
	// handler drains body chunks (spec.md §4.5 back-pressure).
	ReadBufferHighWaterMark int

	// WriteBufferHighWaterMark is the write-buffer occupancy, in bytes,
	// above which the handler's next body push is suspended at the
	// write boundary (spec.md §4.5 back-pressure).
	WriteBufferHighWaterMark int

	// MaxDiscardBytes bounds how much of an unconsumed request body the
	// dispatcher will drain and discard after the handler finishes early
	// (spec.md §4.5 tie-break); exceeding it marks the connection not
	// reusable rather than blocking indefinitely.
	MaxDiscardBytes int64

	// KeepAliveTimeout bounds idle connection lifetime between requests
	// (spec.md §5, default ~5s).
	KeepAliveTimeout time.Duration

	// FirstRequestTimeout is carried in the configuration but is not read
	// by [Dispatcher]: the wait for the first request head is bounded only
	// by KeepAliveTimeout, like every later head.
	FirstRequestTimeout time.Duration

	// ReadBufferInitialCapacity sizes a fresh [ReadBuf].
	ReadBufferInitialCapacity int
}

// NewConfig returns a Config with the defaults spec.md names.
func NewConfig() Config {
	return Config{
		MaxHeaders:                DefaultMaxHeaders,
		ReadBufferHighWaterMark:   1 << 20, // 1 MiB
		WriteBufferHighWaterMark:  1 << 20, // 1 MiB
		MaxDiscardBytes:           1 << 20, // 1 MiB
		KeepAliveTimeout:          5 * time.Second,
		FirstRequestTimeout:       0,
		ReadBufferInitialCapacity: 4096,
	}
}
