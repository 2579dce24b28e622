// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/cancelwatch.go
//

package httpserver

import (
	"context"
	"net"
)

// watchCancel wraps conn so that it is closed as soon as ctx is done,
// unblocking any in-flight Read/Write in [h1.Dispatcher.Serve]. A plain
// net.Conn has no notion of context deadlines: once Run's ctx is
// canceled, an idle connection blocked in a Read would otherwise only
// notice at its next keep-alive timeout. Closing the returned conn
// unregisters the watcher and closes the underlying connection, so no
// goroutine is leaked even when ctx is never canceled.
func watchCancel(ctx context.Context, conn net.Conn) net.Conn {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}
}

type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
