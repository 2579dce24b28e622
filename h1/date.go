// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.4 Encoder (Date header), §9 Design notes (cached Date header)
// Adapted from: _examples/bassosimone-nop/config.go (injected TimeNow for testability)
//

package h1

import (
	"sync/atomic"
	"time"
)

// DateCache holds a formatted HTTP-date string, refreshed at most once
// per second. It is owned by one worker's timer (spec.md §9: "refreshed
// by a timer owned by each worker, not globally"); correctness permits up
// to 1-second staleness.
type DateCache struct {
	now   func() time.Time
	value atomic.Pointer[string]
}

// NewDateCache returns a DateCache seeded with the current formatted
// date. now defaults to time.Now when nil.
func NewDateCache(now func() time.Time) *DateCache {
	if now == nil {
		now = time.Now
	}
	c := &DateCache{now: now}
	c.Refresh()
	return c
}

// Refresh recomputes the cached Date value. Call this from a per-worker
// ticker no more often than once per second; calling it more often is
// harmless but pointless.
func (c *DateCache) Refresh() {
	formatted := c.now().UTC().Format(http1DateFormat)
	c.value.Store(&formatted)
}

// Value returns the most recently cached formatted Date header value.
func (c *DateCache) Value() string {
	p := c.value.Load()
	if p == nil {
		return ""
	}
	return *p
}

// http1DateFormat is the IMF-fixdate format RFC 9110 mandates for the
// Date header, expressed as a Go reference-time layout.
const http1DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
