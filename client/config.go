// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/config.go
//

package client

import (
	"context"
	"net"
	"time"

	"github.com/dispatchkit/htpipe/service"
)

// Dialer abstracts [*net.Dialer] so [DialFunc] is unit-testable and
// alternative dialers (e.g. ones resolving through a custom DNS path) can
// be substituted.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config is the shared configuration for client-side operations: dialer,
// error classification, logging clock, and TLS next-protocol negotiation
// defaults.
type Config struct {
	// Dialer is the [Dialer] DialFunc uses. Defaults to &net.Dialer{}.
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier service.ErrClassifier

	// TimeNow returns the current time (configurable for testing).
	TimeNow func() time.Time

	// NextProtos lists ALPN protocols in preference order. Defaults to
	// {"h2", "http/1.1"}. No type in this package reads it or performs a
	// TLS handshake; RoundTripFunc only inspects the protocol an already
	// established *tls.Conn negotiated.
	NextProtos []string
}

// NewConfig returns a Config with the package's defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: service.DefaultErrClassifier,
		TimeNow:       time.Now,
		NextProtos:    []string{"h2", "http/1.1"},
	}
}
