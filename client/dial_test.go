// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchkit/htpipe/service"
)

type fakeConn struct {
	net.Conn
	local net.Addr
}

func (f *fakeConn) LocalAddr() net.Addr { return f.local }

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

type fakeDialer struct {
	conn net.Conn
	err  error
}

func (d *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.conn, d.err
}

func TestDialFuncSuccess(t *testing.T) {
	conn := &fakeConn{local: fakeAddr("127.0.0.1:1234")}
	cfg := NewConfig()
	cfg.Dialer = &fakeDialer{conn: conn}
	cfg.TimeNow = func() time.Time { return time.Unix(0, 0) }

	fn := NewDialFunc(cfg, "tcp", service.DefaultSLogger())
	addr := netip.MustParseAddrPort("127.0.0.1:80")
	got, err := fn.Call(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, conn, got)
}

func TestDialFuncError(t *testing.T) {
	boom := errors.New("dial failed")
	cfg := NewConfig()
	cfg.Dialer = &fakeDialer{err: boom}

	fn := NewDialFunc(cfg, "tcp", service.DefaultSLogger())
	addr := netip.MustParseAddrPort("127.0.0.1:80")
	_, err := fn.Call(context.Background(), addr)
	assert.ErrorIs(t, err, boom)
}

func TestSafeLocalAddrNilConn(t *testing.T) {
	assert.Equal(t, "", safeLocalAddr(nil))
}
