// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.5 HTTP/1 dispatcher state machine, §4.6, §7, §8
// Adapted from: _examples/bassosimone-nop/httpconn.go (per-connection driver shape)
//

// Package h1 implements the HTTP/1.1 connection dispatcher: buffered I/O
// over a net.Conn, a byte-offset request decoder and response encoder, and
// the per-connection state machine driving keep-alive, Expect: 100-continue,
// chunked transfer encoding, and protocol upgrades. Every request is handed
// to a service.Service built once per worker; the dispatcher owns nothing
// about routing or application logic.
package h1

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/dispatchkit/htpipe/service"
)

// HandlerService is the application contract a [Dispatcher] invokes once
// per request: a borrowed request in, an owned response or error out.
type HandlerService = service.Service[*Request, *Response]

// errConnClosedIdle marks a clean end observed while the dispatcher was
// waiting for the next request head with nothing buffered — the peer
// disconnected or the keep-alive timer expired. It is not a protocol
// violation, just the end of the conversation.
var errConnClosedIdle = errors.New("h1: connection closed while idle")

// Dispatcher drives one HTTP/1.1 connection end to end: reading and
// decoding request heads and bodies, invoking the handler, encoding and
// writing responses, and running the keep-alive/expect/upgrade state
// machine spec.md §4.5 describes. One Dispatcher serves exactly one
// connection and is not safe for concurrent use — each connection gets
// its own Dispatcher, pinned to whichever worker accepted it (spec.md §5).
type Dispatcher struct {
	Config   Config
	Conn     io.ReadWriteCloser
	Handler  HandlerService
	Expect   ExpectService
	Upgrade  UpgradeService
	Dates    *DateCache
	Logger   service.SLogger
	Classify service.ErrClassifier

	decoder  *Decoder
	encoder  *Encoder
	readBuf  *ReadBuf
	writeBuf *WriteBuf
	conn     *ConnContext

	bodyReader      BodyStream
	responseChunked bool
}

// NewDispatcher returns a Dispatcher ready to serve conn with handler,
// using cfg's limits and timeouts. Expect/Upgrade default to their
// zero-cost no-op implementations; set Dispatcher.Expect/Upgrade before
// calling Serve to install real collaborators. Dates defaults to a
// dispatcher-local cache; a caller serving many connections per worker
// should instead call SetDates with a cache shared across that worker's
// dispatchers (see httpserver.Server.runWorker) so the Date
// header is refreshed by one timer per worker rather than one per
// connection.
func NewDispatcher(conn io.ReadWriteCloser, handler HandlerService, cfg Config) *Dispatcher {
	if cfg.MaxHeaders == 0 {
		cfg = NewConfig()
	}
	dates := NewDateCache(nil)
	readBuf := NewReadBuf(cfg.ReadBufferInitialCapacity)
	readBuf.SetHighWaterMark(cfg.ReadBufferHighWaterMark)
	d := &Dispatcher{
		Config:   cfg,
		Conn:     conn,
		Handler:  handler,
		Expect:   NoOpExpectService{},
		Upgrade:  NoOpUpgradeService{},
		Dates:    dates,
		Logger:   service.DefaultSLogger(),
		Classify: service.DefaultErrClassifier,
		decoder:  &Decoder{MaxHeaders: cfg.MaxHeaders},
		encoder:  NewEncoder(dates),
		readBuf:  readBuf,
		writeBuf: NewWriteBuf(),
		conn:     NewConnContext(),
	}
	return d
}

// SetDates replaces d's Date-header cache and re-points the response
// encoder at it. Use this (instead of assigning the Dates field directly)
// so that a worker serving many connections can share one timer-refreshed
// cache across every dispatcher it drives, rather than each connection
// refreshing its own (spec.md §9: "refreshed by a timer owned by each
// worker goroutine").
func (d *Dispatcher) SetDates(dates *DateCache) {
	d.Dates = dates
	d.encoder = NewEncoder(dates)
}

// Serve drives the connection until it is shut down or upgraded. A nil
// return means the connection ended cleanly (idle timeout, Connection:
// close, or the peer disconnecting between requests). A non-nil return
// is an I/O failure; the caller (typically the server's per-connection
// goroutine) is expected to just drop it after logging.
func (d *Dispatcher) Serve(ctx context.Context) error {
	defer d.Conn.Close()

	for {
		d.applyKeepAliveDeadline()

		var err error
		switch d.conn.State {
		case StateReadingHead:
			err = d.stepReadingHead(ctx)
		case StateExpectingContinue:
			err = d.stepExpectingContinue(ctx)
		case StateServingBody:
			err = d.stepServingBody(ctx)
		case StateDrainingResponse:
			err = d.stepDrainingResponse(ctx)
		case StateKeepAlive:
			err = d.stepKeepAlive(ctx)
		case StateUpgrade:
			return d.stepUpgrade(ctx)
		case StateShutdown:
			d.flushWrites()
			return nil
		}
		if err != nil {
			return d.handleFatal(ctx, err)
		}
	}
}

// applyKeepAliveDeadline sets (or clears) the connection's read deadline
// to the keep-alive timer, when the underlying conn supports deadlines
// (spec.md §4.5 "single coarse timer per connection, reset on every full
// request arrival").
func (d *Dispatcher) applyKeepAliveDeadline() {
	nc, ok := d.Conn.(net.Conn)
	if !ok || d.Config.KeepAliveTimeout <= 0 {
		return
	}
	if d.conn.State == StateReadingHead {
		_ = nc.SetReadDeadline(time.Now().Add(d.Config.KeepAliveTimeout))
	} else {
		_ = nc.SetReadDeadline(time.Time{})
	}
}

// stepReadingHead accumulates bytes until the decoder reports a complete
// head (spec.md §4.5 ReadingHead). On success it transitions to either
// ExpectingContinue or ServingBody per spec.md §4.6.
func (d *Dispatcher) stepReadingHead(ctx context.Context) error {
	// The read high-water mark is body back-pressure; a head must be
	// buffered whole before it can be decoded, so it is not bounded here.
	d.readBuf.SetHighWaterMark(0)
	defer d.readBuf.SetHighWaterMark(d.Config.ReadBufferHighWaterMark)

	for {
		raw := d.readBuf.Unread()
		decoded, ok, err := d.decoder.DecodeHead(raw)
		if err != nil {
			return err
		}
		if ok {
			head := decoded.Header(raw)
			materialized := &Head{
				Method:  decoded.Method,
				URI:     decoded.URI,
				Version: decoded.Version,
				Header:  head,
			}
			d.readBuf.Advance(decoded.Consumed)

			d.conn.Head = materialized
			d.conn.RequestContentLength = decoded.ContentLength
			d.conn.RequestChunked = decoded.Chunked
			d.conn.KeepAlive = decoded.KeepAlive

			if decoded.ExpectContinue {
				d.conn.ExpectContinuePending = true
				d.conn.State = StateExpectingContinue
			} else {
				d.conn.State = StateServingBody
			}
			return nil
		}

		d.readBuf.SetInterest(InterestNeedMore)
		n, ioErr := d.readBuf.FillRead(d.Conn)
		if ioErr != nil {
			if errors.Is(ioErr, io.EOF) && d.readBuf.Len() == 0 {
				return errConnClosedIdle
			}
			var netErr net.Error
			if errors.As(ioErr, &netErr) && netErr.Timeout() && d.readBuf.Len() == 0 {
				return errConnClosedIdle
			}
			return &IOError{Op: "read", Err: ioErr}
		}
		if n == 0 {
			if d.readBuf.Len() == 0 {
				return errConnClosedIdle
			}
			return &ProtocolError{Reason: "connection closed mid-head"}
		}
	}
}

// stepExpectingContinue invokes the expect collaborator and either emits
// "100 Continue" and proceeds to ServingBody, or emits the collaborator's
// early response and ends the request without reading a body (spec.md
// §4.5 ExpectingContinue, §4.6).
func (d *Dispatcher) stepExpectingContinue(ctx context.Context) error {
	decision, err := d.Expect.Decide(ctx, *d.conn.Head)
	if err != nil {
		return &ServiceError{Err: err}
	}
	d.conn.ExpectContinuePending = false

	if !decision.Approved {
		resp := decision.EarlyResponse
		if resp == nil {
			resp = &Response{Head: Head{StatusCode: 400, Reason: "Bad Request"}, ContentLength: 0}
		}
		if err := d.writeResponse(ctx, resp); err != nil {
			return err
		}
		d.conn.State = StateDrainingResponse
		return nil
	}

	if decision.Head != nil {
		d.conn.Head = decision.Head
	}

	d.writeBuf.Append([]byte("HTTP/1.1 100 Continue\r\n\r\n"))
	if err := d.flushWrites(); err != nil {
		return err
	}

	d.conn.State = StateServingBody
	return nil
}

// stepServingBody builds the request's body stream, invokes the handler,
// and writes the response (spec.md §4.5 ServingBody, §4.4 body framing).
func (d *Dispatcher) stepServingBody(ctx context.Context) error {
	body := d.newRequestBodyReader()
	req := &Request{Head: *d.conn.Head, Body: body}

	resp, err := d.Handler.Call(ctx, req)
	if err != nil {
		return &ServiceError{Err: err}
	}

	if err := d.drainUnreadRequestBody(ctx, body); err != nil {
		return err
	}

	if resp.Head.StatusCode == 101 {
		d.conn.UpgradeRequested = true
	}

	if err := d.writeResponse(ctx, resp); err != nil {
		return err
	}

	if d.conn.UpgradeRequested {
		d.conn.State = StateUpgrade
		return nil
	}
	d.conn.State = StateDrainingResponse
	return nil
}

// newRequestBodyReader returns the framing-appropriate [BodyStream] for
// the request currently under construction.
func (d *Dispatcher) newRequestBodyReader() BodyStream {
	switch {
	case d.conn.RequestChunked:
		return NewChunkedBodyReader(d.readBuf, d.Conn)
	case d.conn.RequestContentLength > 0:
		return NewFixedLengthBodyReader(d.readBuf, d.Conn, d.conn.RequestContentLength)
	default:
		return EmptyBodyReader{}
	}
}

// drainUnreadRequestBody discards any request body bytes the handler
// never consumed, up to Config.MaxDiscardBytes; exceeding the cap marks
// the connection not reusable rather than blocking indefinitely (spec.md
// §4.5 tie-break).
func (d *Dispatcher) drainUnreadRequestBody(ctx context.Context, body BodyStream) error {
	for {
		chunk, err := body.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var berr *BodyError
			if errors.As(err, &berr) {
				d.conn.KeepAlive = false
				return nil
			}
			return err
		}
		d.conn.RequestBytesDrained += int64(len(chunk))
		if d.conn.RequestBytesDrained > d.Config.MaxDiscardBytes {
			d.conn.KeepAlive = false
			return nil
		}
	}
}

// writeResponse encodes resp's head and fully drains its body into the
// write buffer and out to the wire, applying the Content-Length
// truncation tie-break (spec.md §4.5: "if the handler writes a response
// body longer than a declared Content-Length, truncate... and mark the
// connection not reusable").
func (d *Dispatcher) writeResponse(ctx context.Context, resp *Response) error {
	chunked := d.encoder.EncodeHead(d.writeBuf, resp)
	d.conn.ResponseWritten = true

	var written int64
	if resp.Body != nil {
		for {
			chunk, err := resp.Body.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return &BodyError{Err: err}
			}
			if !chunked && resp.ContentLength >= 0 {
				remaining := resp.ContentLength - written
				if remaining <= 0 {
					d.conn.KeepAlive = false
					break
				}
				if int64(len(chunk)) > remaining {
					chunk = chunk[:remaining]
					d.conn.KeepAlive = false
				}
			}
			d.encoder.EncodeBodyChunk(d.writeBuf, chunk, chunked)
			written += int64(len(chunk))

			if d.writeBuf.Pending() > d.Config.WriteBufferHighWaterMark {
				if err := d.flushWrites(); err != nil {
					return err
				}
			}
		}
	}
	d.encoder.EncodeBodyEnd(d.writeBuf, chunked)

	return d.flushWrites()
}

// stepDrainingResponse is a placeholder synchronization point: by the
// time writeResponse returns, the response has already been fully
// flushed, so this step only decides the next state (spec.md §4.5
// DrainingResponse → KeepAlive).
func (d *Dispatcher) stepDrainingResponse(ctx context.Context) error {
	d.conn.State = StateKeepAlive
	return nil
}

// stepKeepAlive decides whether to loop back to ReadingHead or shut down
// (spec.md §4.5 KeepAlive).
func (d *Dispatcher) stepKeepAlive(ctx context.Context) error {
	if d.conn.KeepAlive {
		d.conn.Reset()
		return nil
	}
	d.conn.State = StateShutdown
	return nil
}

// stepUpgrade hands the connection off to the configured [UpgradeService]
// after flushing (spec.md §4.5 Upgrade, §4.6).
func (d *Dispatcher) stepUpgrade(ctx context.Context) error {
	if err := d.flushWrites(); err != nil {
		return err
	}
	handoff := UpgradeHandoff{
		Conn:      d.Conn,
		Unread:    append([]byte(nil), d.readBuf.Unread()...),
		ConnState: d.conn,
	}
	return d.Upgrade.Take(ctx, handoff)
}

// flushWrites drains the write buffer to the wire, blocking until empty
// or a write error occurs.
func (d *Dispatcher) flushWrites() error {
	for !d.writeBuf.IsEmpty() {
		n, err := d.writeBuf.DrainWrite(d.Conn)
		if err != nil {
			return &IOError{Op: "write", Err: err}
		}
		if n == 0 {
			break
		}
	}
	return nil
}

// handleFatal classifies a step's error and, where spec.md §7 prescribes
// a synthesized response, writes one before tearing the connection down.
// A clean idle disconnect is not an error at all from the caller's point
// of view.
func (d *Dispatcher) handleFatal(ctx context.Context, err error) error {
	if errors.Is(err, errConnClosedIdle) {
		d.conn.State = StateShutdown
		return nil
	}

	var hoerr *HeaderOverflowError
	var perr *ProtocolError
	var serr *ServiceError
	switch {
	case errors.As(err, &hoerr):
		d.writeSynthesized(431, "Request Header Fields Too Large")
	case errors.As(err, &perr):
		d.writeSynthesized(400, "Bad Request")
	case errors.As(err, &serr):
		d.writeSynthesized(500, "Internal Server Error")
	}

	d.conn.State = StateShutdown
	_ = d.flushWrites()

	class := d.Classify.Classify(err)
	d.Logger.Debug("h1 connection terminated", "error", err.Error(), "class", class)

	var ioerr *IOError
	if errors.As(err, &ioerr) {
		return err
	}
	return nil
}

// writeSynthesized emits a bodyless status response, but only if nothing
// has been written yet (spec.md §7: protocol/service errors surface a
// response "if nothing has been written").
func (d *Dispatcher) writeSynthesized(code int, reason string) {
	if d.conn.ResponseWritten {
		return
	}
	resp := &Response{
		Head:          Head{StatusCode: code, Reason: reason},
		ContentLength: 0,
	}
	d.encoder.EncodeHead(d.writeBuf, resp)
	d.conn.ResponseWritten = true
}
