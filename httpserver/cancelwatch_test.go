// SPDX-License-Identifier: GPL-3.0-or-later

package httpserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeCountingConn is a minimal net.Conn stub that only tracks Close calls.
type closeCountingConn struct {
	net.Conn
	closeCount int
	closed     chan struct{}
}

func newCloseCountingConn() *closeCountingConn {
	return &closeCountingConn{closed: make(chan struct{}, 8)}
}

func (c *closeCountingConn) Close() error {
	c.closeCount++
	c.closed <- struct{}{}
	return nil
}

func TestWatchCancelClosesOnCancel(t *testing.T) {
	inner := newCloseCountingConn()
	ctx, cancel := context.WithCancel(context.Background())

	wrapped := watchCancel(ctx, inner)
	require.NotNil(t, wrapped)

	select {
	case <-inner.closed:
		t.Fatal("connection should not be closed yet")
	default:
	}

	cancel()

	select {
	case <-inner.closed:
	case <-time.After(time.Second):
		t.Fatal("context cancellation did not close the connection in time")
	}
	assert.Equal(t, 1, inner.closeCount)
}

func TestWatchCancelCloseUnregistersWatcher(t *testing.T) {
	inner := newCloseCountingConn()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapped := watchCancel(ctx, inner)
	require.NoError(t, wrapped.Close())
	assert.Equal(t, 1, inner.closeCount)

	cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, inner.closeCount)
}
