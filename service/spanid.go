// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop spanid.go
//

package service

import "github.com/google/uuid"

// NewSpanID returns a UUIDv7 identifying a span: a connection, or a single
// request within a connection, that can fail in one specific way.
//
// Attach a span ID to a logger with [*slog.Logger.With] so every log entry
// emitted while serving that connection or request carries the same
// identifier, making it possible to reconstruct a timeline from logs alone.
//
// The span terminology is borrowed from OpenTelemetry.
func NewSpanID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
