// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.4 Body framing, §3 Request/Response
// Adapted from: other_examples/9336445a (andycostintoma/go-httpx chunked writer, read side mirrored)
// Adapted from: _examples/bassosimone-nop/httpbody.go (lazy, logging-wrapped body stream shape)
//

package h1

import (
	"context"
	"io"
)

// FixedLengthBodyReader yields exactly N bytes from a [ReadBuf], the
// framing spec.md §4.4 mandates for Content-Length requests.
type FixedLengthBodyReader struct {
	buf       *ReadBuf
	conn      io.Reader
	remaining int64
}

// NewFixedLengthBodyReader returns a reader that yields exactly n bytes,
// pulling from buf and, once buf is exhausted, conn.
func NewFixedLengthBodyReader(buf *ReadBuf, conn io.Reader, n int64) *FixedLengthBodyReader {
	return &FixedLengthBodyReader{buf: buf, conn: conn, remaining: n}
}

// Remaining reports how many body bytes are still owed.
func (r *FixedLengthBodyReader) Remaining() int64 { return r.remaining }

// Next implements [BodyStream].
func (r *FixedLengthBodyReader) Next(ctx context.Context) ([]byte, error) {
	if r.remaining <= 0 {
		return nil, io.EOF
	}
	for r.buf.Len() == 0 {
		r.buf.SetInterest(InterestNeedMore)
		n, err := r.buf.FillRead(r.conn)
		if err != nil {
			return nil, &BodyError{Err: err}
		}
		if n == 0 {
			return nil, &BodyError{Err: io.ErrUnexpectedEOF}
		}
	}
	want := r.remaining
	if int64(r.buf.Len()) < want {
		want = int64(r.buf.Len())
	}
	chunk := r.buf.Split(int(want))
	r.remaining -= int64(chunk.Len())
	return chunk.Bytes(), nil
}

// chunkedState is the decode state of [ChunkedBodyReader].
type chunkedState int

const (
	chunkedAwaitingSize chunkedState = iota
	chunkedAwaitingData
	chunkedAwaitingDataCRLF
	chunkedAwaitingTrailerEnd
	chunkedDone
)

// ChunkedBodyReader decodes an HTTP/1.1 chunked-transfer body: a sequence
// of "<hex-size>\r\n<data>\r\n" frames terminated by a zero-size chunk and
// an (possibly empty) trailer section ending in a blank line.
type ChunkedBodyReader struct {
	buf   *ReadBuf
	conn  io.Reader
	state chunkedState

	chunkRemaining int64
}

// NewChunkedBodyReader returns a reader that decodes chunked framing from
// buf, pulling from conn when more bytes are needed.
func NewChunkedBodyReader(buf *ReadBuf, conn io.Reader) *ChunkedBodyReader {
	return &ChunkedBodyReader{buf: buf, conn: conn}
}

// Next implements [BodyStream].
func (r *ChunkedBodyReader) Next(ctx context.Context) ([]byte, error) {
	for {
		switch r.state {
		case chunkedDone:
			return nil, io.EOF

		case chunkedAwaitingSize:
			line, ok, err := r.readLine()
			if err != nil {
				return nil, &BodyError{Err: err}
			}
			if !ok {
				continue
			}
			size, err := parseChunkSize(line)
			if err != nil {
				return nil, &BodyError{Err: err}
			}
			if size == 0 {
				r.state = chunkedAwaitingTrailerEnd
				continue
			}
			r.chunkRemaining = size
			r.state = chunkedAwaitingData

		case chunkedAwaitingData:
			if err := r.ensure(1); err != nil {
				return nil, &BodyError{Err: err}
			}
			want := r.chunkRemaining
			if int64(r.buf.Len()) < want {
				want = int64(r.buf.Len())
			}
			chunk := r.buf.Split(int(want))
			r.chunkRemaining -= int64(chunk.Len())
			if r.chunkRemaining == 0 {
				r.state = chunkedAwaitingDataCRLF
			}
			return chunk.Bytes(), nil

		case chunkedAwaitingDataCRLF:
			line, ok, err := r.readLine()
			if err != nil {
				return nil, &BodyError{Err: err}
			}
			if !ok {
				continue
			}
			if len(line) != 0 {
				return nil, &BodyError{Err: &ProtocolError{Reason: "malformed chunk terminator"}}
			}
			r.state = chunkedAwaitingSize

		case chunkedAwaitingTrailerEnd:
			line, ok, err := r.readLine()
			if err != nil {
				return nil, &BodyError{Err: err}
			}
			if !ok {
				continue
			}
			if len(line) == 0 {
				r.state = chunkedDone
				return nil, io.EOF
			}
			// Trailer fields are read and discarded: the core does not
			// expose trailers to the handler (not named by the wire
			// protocol section).
		}
	}
}

// ensure blocks (via fill) until at least n unconsumed bytes are buffered.
func (r *ChunkedBodyReader) ensure(n int) error {
	for r.buf.Len() < n {
		r.buf.SetInterest(InterestNeedMore)
		got, err := r.buf.FillRead(r.conn)
		if err != nil {
			return err
		}
		if got == 0 {
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}

// readLine returns the next CRLF-terminated line (without the CRLF) from
// buf, consuming it. ok is false when more bytes are needed first; the
// caller should loop back around rather than treating that as an error.
func (r *ChunkedBodyReader) readLine() (line []byte, ok bool, err error) {
	unread := r.buf.Unread()
	idx := indexCRLF(unread)
	if idx < 0 {
		if err := r.ensure(len(unread) + 1); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	chunk := r.buf.Split(idx + 2)
	return chunk.Bytes()[:idx], true, nil
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// parseChunkSize parses the hex size prefix of a chunk line, ignoring any
// chunk-extension following a ';'.
func parseChunkSize(line []byte) (int64, error) {
	for i, c := range line {
		if c == ';' {
			line = line[:i]
			break
		}
	}
	if len(line) == 0 {
		return 0, &ProtocolError{Reason: "empty chunk size"}
	}
	var n int64
	for _, c := range line {
		n <<= 4
		switch {
		case c >= '0' && c <= '9':
			n |= int64(c - '0')
		case c >= 'a' && c <= 'f':
			n |= int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= int64(c-'A') + 10
		default:
			return 0, &ProtocolError{Reason: "malformed chunk size"}
		}
	}
	return n, nil
}

// EmptyBodyReader is a [BodyStream] that immediately yields io.EOF,
// used for requests with no declared body.
type EmptyBodyReader struct{}

// Next implements [BodyStream].
func (EmptyBodyReader) Next(ctx context.Context) ([]byte, error) { return nil, io.EOF }
