// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/httpconn.go (per-connection driver,
// logging shape)
// Adapted from: spec.md §1 ("HTTP/2 and HTTP/3 protocol engines... their
// codecs are delegated to existing protocol libraries")
//

package client

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/dispatchkit/htpipe/service"
)

// RoundTripFunc turns an established connection into a single
// [*http.Response] for one [*http.Request], selecting the wire protocol
// by ALPN: "h2" delegates to [http2.Transport], anything else
// (including no ALPN at all, i.e. plaintext) uses the standard library's
// HTTP/1.1 client transport bound to the single supplied connection.
//
// The HTTP/2 engine itself is never reimplemented — RoundTripFunc only
// decides which existing engine owns the connection.
type RoundTripFunc struct {
	ErrClassifier service.ErrClassifier
	Logger        service.SLogger
	TimeNow       func() time.Time
}

// NewRoundTripFunc returns a [*RoundTripFunc] wired from cfg.
func NewRoundTripFunc(cfg *Config, logger service.SLogger) *RoundTripFunc {
	return &RoundTripFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ConnRequest pairs an already-established connection with the single
// request to issue on it; Call's request type.
type ConnRequest struct {
	Conn    net.Conn
	Request *http.Request
}

var _ service.Service[ConnRequest, *http.Response] = &RoundTripFunc{}

// Call implements [service.Service].
func (op *RoundTripFunc) Call(ctx context.Context, cr ConnRequest) (*http.Response, error) {
	t0 := op.TimeNow()
	negotiated := negotiatedProtocol(cr.Conn)

	op.Logger.Info("roundTripStart",
		slog.String("negotiatedProtocol", negotiated),
		slog.String("method", cr.Request.Method),
		slog.String("url", cr.Request.URL.String()),
		slog.Time("t", t0),
	)

	var resp *http.Response
	var err error
	if negotiated == "h2" {
		resp, err = op.roundTripH2(ctx, cr)
	} else {
		resp, err = op.roundTripH1(ctx, cr)
	}

	op.Logger.Info("roundTripDone",
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("negotiatedProtocol", negotiated),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
	return resp, err
}

// roundTripH1 drives the connection through the standard library's
// HTTP/1.1 client state machine, bound to exactly this one connection.
func (op *RoundTripFunc) roundTripH1(ctx context.Context, cr ConnRequest) (*http.Response, error) {
	transport := &http.Transport{
		DialContext: func(context.Context, string, string) (net.Conn, error) {
			return cr.Conn, nil
		},
	}
	return transport.RoundTrip(cr.Request.WithContext(ctx))
}

// roundTripH2 hands the connection to [http2.Transport], which owns
// HTTP/2 framing, flow control, and stream multiplexing entirely; this
// package never reimplements any of that.
func (op *RoundTripFunc) roundTripH2(ctx context.Context, cr ConnRequest) (*http.Response, error) {
	transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
			return cr.Conn, nil
		},
	}
	clientConn, err := transport.NewClientConn(cr.Conn)
	if err != nil {
		return nil, err
	}
	return clientConn.RoundTrip(cr.Request.WithContext(ctx))
}

// negotiatedProtocol inspects conn for a TLS ALPN result, returning "" for
// a plaintext connection.
func negotiatedProtocol(conn net.Conn) string {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return ""
	}
	return tlsConn.ConnectionState().NegotiatedProtocol
}
