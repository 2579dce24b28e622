// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/connect.go (ConnectFunc)
//

package client

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/dispatchkit/htpipe/service"
)

// DialFunc dials a [netip.AddrPort] over a configured network, logging
// connect start/done events the way the rest of this repository logs I/O
// lifecycle events.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to Call.
type DialFunc struct {
	Dialer        Dialer
	ErrClassifier service.ErrClassifier
	Logger        service.SLogger
	Network       string
	TimeNow       func() time.Time
}

// NewDialFunc returns a [*DialFunc] wired from cfg for the given network
// ("tcp" or "udp"), logging through logger.
func NewDialFunc(cfg *Config, network string, logger service.SLogger) *DialFunc {
	return &DialFunc{
		Dialer:        cfg.Dialer,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Network:       network,
		TimeNow:       cfg.TimeNow,
	}
}

var _ service.Service[netip.AddrPort, net.Conn] = &DialFunc{}

// Call implements [service.Service]: dials address, returning a valid
// [net.Conn] or an error, never both.
func (op *DialFunc) Call(ctx context.Context, address netip.AddrPort) (net.Conn, error) {
	t0 := op.TimeNow()
	deadline, _ := ctx.Deadline()
	op.Logger.Info("connectStart",
		slog.Time("deadline", deadline),
		slog.String("protocol", op.Network),
		slog.String("remoteAddr", address.String()),
		slog.Time("t", t0),
	)

	conn, err := op.Dialer.DialContext(ctx, op.Network, address.String())

	op.Logger.Info("connectDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("localAddr", safeLocalAddr(conn)),
		slog.String("protocol", op.Network),
		slog.String("remoteAddr", address.String()),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
	return conn, err
}

// safeLocalAddr returns conn's local address string, or "" for a nil
// conn — the narrow piece of what a dedicated safe-conn-introspection
// helper would provide, inlined here since nothing else in this package
// needs the rest of that surface.
func safeLocalAddr(conn net.Conn) string {
	if conn == nil {
		return ""
	}
	addr := conn.LocalAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}
