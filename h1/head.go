// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/actix-http-alt/src/request.rs (HttpRequest alias)
// Adapted from: other_examples/9336445a (andycostintoma/go-httpx response.go Header usage)
//

package h1

import (
	"context"
	"net/textproto"
)

// HeaderField is one name/value pair, in the order it was parsed or added.
type HeaderField struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields. Unlike net/http.Header (a
// map), Header preserves insertion order across distinct field names,
// which spec.md §6 requires for response encoding ("headers in insertion
// order").
type Header []HeaderField

// Get returns the first value for name (case-insensitive), or "".
func (h Header) Get(name string) string {
	canon := textproto.CanonicalMIMEHeaderKey(name)
	for _, f := range h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) == canon {
			return f.Value
		}
	}
	return ""
}

// Has reports whether name is present at all (case-insensitive).
func (h Header) Has(name string) bool {
	canon := textproto.CanonicalMIMEHeaderKey(name)
	for _, f := range h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) == canon {
			return true
		}
	}
	return false
}

// Add appends a new field, preserving any existing fields of the same name.
func (h *Header) Add(name, value string) {
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Set replaces all existing fields named name with a single field.
func (h *Header) Set(name, value string) {
	canon := textproto.CanonicalMIMEHeaderKey(name)
	out := (*h)[:0]
	for _, f := range *h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) != canon {
			out = append(out, f)
		}
	}
	*h = append(out, HeaderField{Name: name, Value: value})
}

// Head is the opaque, body-free portion of a request or response: method,
// URI, version, headers, and an extension bag for out-of-band metadata a
// handler may want to stash (spec.md §3 Request/Response).
type Head struct {
	Method     string
	URI        string
	Version    string // "HTTP/1.1" or "HTTP/1.0"
	Header     Header
	StatusCode int    // response only
	Reason     string // response only

	Extensions map[string]any
}

// BodyStream is a lazy, non-restartable sequence of byte chunks terminated
// either by end-of-stream (Next returns io.EOF) or a typed [BodyError].
type BodyStream interface {
	// Next returns the next chunk of the body, or io.EOF when the body is
	// fully consumed. The returned slice is only valid until the next call
	// to Next, unless it originated from a [Chunk] obtained via
	// [ReadBuf.Split] (an owned copy, safe to retain).
	Next(ctx context.Context) ([]byte, error)
}

// Request is a full HTTP/1 request: head plus a lazy body.
type Request struct {
	Head Head
	Body BodyStream
}

// Response is a full HTTP/1 response: head plus a lazy body. ContentLength
// of -1 means "unknown, use chunked framing"; 0 or more means a declared
// Content-Length the [Encoder] enforces.
type Response struct {
	Head          Head
	Body          BodyStream
	ContentLength int64
}
