// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.6 Expect and Upgrade collaborators
//

package h1

import (
	"context"
	"io"
)

// UpgradeHandoff carries everything the dispatcher owned over to the
// upgrade target: the raw stream and any unread bytes still sitting in
// the read buffer. The dispatcher no longer owns the connection once it
// calls Take.
type UpgradeHandoff struct {
	Conn      io.ReadWriteCloser
	Unread    []byte
	ConnState *ConnContext
}

// UpgradeService receives a 101 response and the handoff, and drives the
// connection as a non-HTTP protocol from then on.
type UpgradeService interface {
	Take(ctx context.Context, handoff UpgradeHandoff) error
}

// UpgradeServiceFunc adapts a plain function to [UpgradeService].
type UpgradeServiceFunc func(ctx context.Context, handoff UpgradeHandoff) error

// Take implements [UpgradeService].
func (f UpgradeServiceFunc) Take(ctx context.Context, handoff UpgradeHandoff) error {
	return f(ctx, handoff)
}

// NoOpUpgradeService closes the connection immediately; it is the
// zero-cost default when a builder configures no upgrade collaborator,
// so a handler that returns 101 without one simply ends the connection.
type NoOpUpgradeService struct{}

// Take implements [UpgradeService].
func (NoOpUpgradeService) Take(ctx context.Context, handoff UpgradeHandoff) error {
	return handoff.Conn.Close()
}
