// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.4 Encoder, §6 External interfaces (response head format)
// Adapted from: other_examples/9336445a (andycostintoma/go-httpx response.go chunked writer)
//

package h1

import (
	"context"
	"errors"
	"io"
	"strconv"
)

// Encoder serializes response heads and streams response bodies into a
// [WriteBuf]. It never blocks: all it does is append framed byte slices;
// the dispatcher is responsible for draining the WriteBuf to the wire.
type Encoder struct {
	dates *DateCache
}

// NewEncoder returns an Encoder that stamps Date headers from dates.
func NewEncoder(dates *DateCache) *Encoder {
	return &Encoder{dates: dates}
}

// EncodeHead appends the status line and the handler's headers to wb,
// then, unless the handler already supplied Content-Length or
// Transfer-Encoding, a synthesized Content-Length carrying
// resp.ContentLength (Transfer-Encoding: chunked when it is negative),
// then a Date header unless the handler supplied one. It returns whether
// the body must be chunk-framed (resp.ContentLength < 0).
func (e *Encoder) EncodeHead(wb *WriteBuf, resp *Response) (chunked bool) {
	statusCode := resp.Head.StatusCode
	reason := resp.Head.Reason
	if reason == "" {
		reason = statusText(statusCode)
	}

	var line []byte
	line = append(line, "HTTP/1.1 "...)
	line = strconv.AppendInt(line, int64(statusCode), 10)
	line = append(line, ' ')
	line = append(line, reason...)
	line = append(line, '\r', '\n')
	wb.Append(line)

	hasDate := resp.Head.Header.Has("Date")
	hasContentLength := resp.Head.Header.Has("Content-Length")
	hasTransferEncoding := resp.Head.Header.Has("Transfer-Encoding")

	for _, f := range resp.Head.Header {
		wb.Append(encodeHeaderLine(f.Name, f.Value))
	}

	chunked = resp.ContentLength < 0
	if !hasContentLength && !hasTransferEncoding {
		if chunked {
			wb.Append(encodeHeaderLine("Transfer-Encoding", "chunked"))
		} else {
			wb.Append(encodeHeaderLine("Content-Length", strconv.FormatInt(resp.ContentLength, 10)))
		}
	}

	if !hasDate && e.dates != nil {
		wb.Append(encodeHeaderLine("Date", e.dates.Value()))
	}

	wb.Append([]byte("\r\n"))
	return chunked
}

// EncodeBodyChunk appends one body chunk to wb, wrapping it in chunked
// framing when chunked is true (as decided by the preceding EncodeHead
// call) or passing it through verbatim for Content-Length framing.
func (e *Encoder) EncodeBodyChunk(wb *WriteBuf, chunk []byte, chunked bool) {
	if len(chunk) == 0 {
		return
	}
	if !chunked {
		wb.Append(chunk)
		return
	}
	var prefix []byte
	prefix = strconv.AppendInt(prefix, int64(len(chunk)), 16)
	prefix = append(prefix, '\r', '\n')
	wb.Append(prefix)
	wb.Append(chunk)
	wb.Append([]byte("\r\n"))
}

// EncodeBodyEnd appends the chunked terminator ("0\r\n\r\n") when chunked
// is true. It is a no-op for Content-Length framing, where the stream
// simply ends after the declared byte count.
func (e *Encoder) EncodeBodyEnd(wb *WriteBuf, chunked bool) {
	if chunked {
		wb.Append([]byte("0\r\n\r\n"))
	}
}

// EncodeResponse drains body via [BodyStream.Next] and appends the full
// framed response (head, every body chunk, and any chunked terminator)
// to wb. It is a convenience wrapper for callers (tests, a client-side
// encoder) that don't need per-chunk interleaving with reads.
func (e *Encoder) EncodeResponse(ctx context.Context, wb *WriteBuf, resp *Response) error {
	chunked := e.EncodeHead(wb, resp)
	if resp.Body == nil {
		e.EncodeBodyEnd(wb, chunked)
		return nil
	}
	var written int64
	for {
		chunk, err := resp.Body.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if !chunked && resp.ContentLength >= 0 {
			remaining := resp.ContentLength - written
			if int64(len(chunk)) > remaining {
				chunk = chunk[:remaining]
			}
		}
		e.EncodeBodyChunk(wb, chunk, chunked)
		written += int64(len(chunk))
		if !chunked && resp.ContentLength >= 0 && written >= resp.ContentLength {
			break
		}
	}
	e.EncodeBodyEnd(wb, chunked)
	return nil
}

func encodeHeaderLine(name, value string) []byte {
	var b []byte
	b = append(b, name...)
	b = append(b, ':', ' ')
	b = append(b, value...)
	b = append(b, '\r', '\n')
	return b
}

// statusText returns the standard reason phrase for the small set of
// status codes the core itself ever synthesizes (400, 431, 500, 100,
// 101); anything else falls back to a generic phrase since the handler
// is expected to supply its own Reason for application-level responses.
func statusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}
