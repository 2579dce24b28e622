// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.4 HTTP/1 codec (Decoder)
// Adapted from: original_source/http/src/h1/proto/header.rs (byte-offset header indexing)
// Adapted from: other_examples/9336445a (andycostintoma/go-httpx request parsing shape)
//

package h1

import (
	"bytes"
	"strconv"
	"strings"
)

// DefaultMaxHeaders is the default bound on header fields per request,
// matching the ≥96 floor spec.md §4.4 and §9 require. Exceeding it yields
// a [HeaderOverflowError], which the dispatcher maps to 431, not 400.
const DefaultMaxHeaders = 96

// HeaderIndex records a parsed header field as byte offsets into the
// decoder's input, avoiding a per-header allocation. NameStart/NameEnd and
// ValueStart/ValueEnd are half-open ranges.
type HeaderIndex struct {
	NameStart  int
	NameEnd    int
	ValueStart int
	ValueEnd   int
}

// DecodedHead is the result of successfully decoding a request head: the
// parsed request line, the header indices into the original buffer, and
// the framing the headers imply.
type DecodedHead struct {
	Method  string
	URI     string
	Version string

	HeaderIndices []HeaderIndex

	// ContentLength is -1 when the body is framed by chunked encoding, 0
	// when the head declares neither Content-Length nor chunked framing,
	// and otherwise the declared byte count.
	ContentLength int64
	Chunked       bool
	KeepAlive     bool
	ExpectContinue bool

	// Consumed is the number of bytes of the input occupied by the head,
	// including the terminating blank line.
	Consumed int
}

// Header materializes the decoder's byte-offset indices into an ordered
// [Header] slice over the given backing buffer. Call this only once the
// caller no longer needs to avoid the allocation (e.g. when the head is
// handed off to a handler).
func (d *DecodedHead) Header(buf []byte) Header {
	h := make(Header, 0, len(d.HeaderIndices))
	for _, idx := range d.HeaderIndices {
		h = append(h, HeaderField{
			Name:  string(buf[idx.NameStart:idx.NameEnd]),
			Value: string(buf[idx.ValueStart:idx.ValueEnd]),
		})
	}
	return h
}

// Decoder parses HTTP/1.1 request heads out of a byte buffer. A Decoder
// is stateless across heads; request-body framing state is tracked by
// the body reader types in body.go and the dispatcher's connection
// context.
type Decoder struct {
	MaxHeaders int
}

// NewDecoder returns a Decoder configured with [DefaultMaxHeaders].
func NewDecoder() *Decoder {
	return &Decoder{MaxHeaders: DefaultMaxHeaders}
}

// DecodeHead attempts to parse one request head from data. It returns
// (nil, false, nil) when data does not yet contain a complete head ("Partial"
// per spec.md §4.4: leave the buffer alone, request more bytes). It returns
// a non-nil head and true on success. A non-nil error is always a
// [ProtocolError] or [HeaderOverflowError] and is fatal to the connection.
func (d *Decoder) DecodeHead(data []byte) (*DecodedHead, bool, error) {
	maxHeaders := d.MaxHeaders
	if maxHeaders <= 0 {
		maxHeaders = DefaultMaxHeaders
	}

	end := bytes.Index(data, []byte("\r\n\r\n"))
	if end < 0 {
		return nil, false, nil
	}
	headBytes := data[:end]
	consumed := end + 4

	lines := splitCRLFOffsets(headBytes)
	if len(lines) == 0 {
		return nil, false, NewProtocolError("empty request head")
	}

	method, uri, version, err := parseRequestLine(data[lines[0].start:lines[0].end])
	if err != nil {
		return nil, false, err
	}

	head := &DecodedHead{
		Method:        method,
		URI:           uri,
		Version:       version,
		ContentLength: -1,
		Consumed:      consumed,
	}

	var sawContentLength, sawChunked bool
	for _, line := range lines[1:] {
		if len(head.HeaderIndices) >= maxHeaders {
			return nil, false, &HeaderOverflowError{Limit: maxHeaders}
		}
		idx, err := parseHeaderLine(data, line.start, line.end)
		if err != nil {
			return nil, false, err
		}
		head.HeaderIndices = append(head.HeaderIndices, idx)

		name := string(data[idx.NameStart:idx.NameEnd])
		value := strings.TrimSpace(string(data[idx.ValueStart:idx.ValueEnd]))

		switch strings.ToLower(name) {
		case "content-length":
			sawContentLength = true
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return nil, false, NewProtocolError("invalid Content-Length: %q", value)
			}
			head.ContentLength = n
		case "transfer-encoding":
			if strings.EqualFold(strings.TrimSpace(value), "chunked") {
				sawChunked = true
			} else if value != "" {
				return nil, false, NewProtocolError("unknown transfer coding: %q", value)
			}
		case "expect":
			if strings.EqualFold(strings.TrimSpace(value), "100-continue") {
				head.ExpectContinue = true
			}
		}
	}

	if sawContentLength && sawChunked {
		return nil, false, NewProtocolError("both Content-Length and Transfer-Encoding: chunked present")
	}
	head.Chunked = sawChunked
	if sawChunked {
		head.ContentLength = -1
	}

	head.KeepAlive = defaultKeepAlive(version)
	for _, idx := range head.HeaderIndices {
		name := string(data[idx.NameStart:idx.NameEnd])
		if strings.EqualFold(name, "connection") {
			value := strings.TrimSpace(string(data[idx.ValueStart:idx.ValueEnd]))
			for _, tok := range strings.Split(value, ",") {
				tok = strings.TrimSpace(tok)
				if strings.EqualFold(tok, "close") {
					head.KeepAlive = false
				} else if strings.EqualFold(tok, "keep-alive") {
					head.KeepAlive = true
				}
			}
		}
	}

	if !sawContentLength && !sawChunked {
		head.ContentLength = 0
	}

	return head, true, nil
}

func defaultKeepAlive(version string) bool {
	return version == "HTTP/1.1"
}

// lineOffset is a half-open [start,end) byte range within the original
// decode input, identifying one CRLF-terminated header-section line.
type lineOffset struct {
	start, end int
}

// splitCRLFOffsets splits b (a prefix of the decoder's input, so offsets
// into b are also offsets into the input) into CRLF-delimited lines,
// recording each line's byte range rather than copying or re-slicing.
func splitCRLFOffsets(b []byte) []lineOffset {
	var lines []lineOffset
	start := 0
	for start <= len(b) {
		i := bytes.Index(b[start:], []byte("\r\n"))
		if i < 0 {
			lines = append(lines, lineOffset{start, len(b)})
			break
		}
		lines = append(lines, lineOffset{start, start + i})
		start += i + 2
	}
	return lines
}

func parseRequestLine(line []byte) (method, uri, version string, err error) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return "", "", "", NewProtocolError("malformed request line: %q", line)
	}
	method = string(parts[0])
	uri = string(parts[1])
	version = string(parts[2])
	if method == "" || uri == "" {
		return "", "", "", NewProtocolError("malformed request line: %q", line)
	}
	if version != "HTTP/1.1" && version != "HTTP/1.0" {
		return "", "", "", NewProtocolError("unsupported version: %q", version)
	}
	if !isValidToken(method) {
		return "", "", "", NewProtocolError("malformed method token: %q", method)
	}
	return method, uri, version, nil
}

// parseHeaderLine locates name/value byte ranges for one header line
// occupying data[start:end], trimming optional whitespace (OWS) around
// the value without losing track of absolute offsets.
func parseHeaderLine(data []byte, start, end int) (HeaderIndex, error) {
	line := data[start:end]
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return HeaderIndex{}, NewProtocolError("malformed header line: %q", line)
	}
	nameStart, nameEnd := start, start+colon
	if nameEnd == nameStart || !isValidToken(string(data[nameStart:nameEnd])) {
		return HeaderIndex{}, NewProtocolError("invalid header name: %q", data[nameStart:nameEnd])
	}

	valueStart, valueEnd := start+colon+1, end
	for valueStart < valueEnd && (data[valueStart] == ' ' || data[valueStart] == '\t') {
		valueStart++
	}
	for valueEnd > valueStart && (data[valueEnd-1] == ' ' || data[valueEnd-1] == '\t') {
		valueEnd--
	}

	return HeaderIndex{
		NameStart:  nameStart,
		NameEnd:    nameEnd,
		ValueStart: valueStart,
		ValueEnd:   valueEnd,
	}, nil
}

func isValidToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isTokenChar(c) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
