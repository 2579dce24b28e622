// SPDX-License-Identifier: GPL-3.0-or-later

package httpserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchkit/htpipe/h1"
	"github.com/dispatchkit/htpipe/service"
)

func helloBuilder() HandlerBuilder {
	return service.BuilderFunc[service.Unit, h1.HandlerService](
		func(ctx context.Context, _ service.Unit) (h1.HandlerService, error) {
			return service.ServiceFunc[*h1.Request, *h1.Response](
				func(ctx context.Context, req *h1.Request) (*h1.Response, error) {
					for {
						if _, err := req.Body.Next(ctx); err != nil {
							break
						}
					}
					body := "Hello World!"
					return &h1.Response{
						Head:          h1.Head{StatusCode: 200, Reason: "OK"},
						Body:          &staticBody{data: []byte(body)},
						ContentLength: int64(len(body)),
					}, nil
				},
			), nil
		},
	)
}

type staticBody struct {
	data []byte
	sent bool
}

func (b *staticBody) Next(ctx context.Context) ([]byte, error) {
	if b.sent {
		return nil, io.EOF
	}
	b.sent = true
	return b.data, nil
}

// slowBuilder returns a handler that blocks on ctx, so a test can hold a
// connection "in flight" and observe whether a force Shutdown actually
// terminates it instead of waiting for natural completion.
func slowBuilder() HandlerBuilder {
	return service.BuilderFunc[service.Unit, h1.HandlerService](
		func(ctx context.Context, _ service.Unit) (h1.HandlerService, error) {
			return service.ServiceFunc[*h1.Request, *h1.Response](
				func(ctx context.Context, req *h1.Request) (*h1.Response, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			), nil
		},
	)
}

func TestServerShutdownForceClosesInFlightConnections(t *testing.T) {
	cfg := NewConfig()
	cfg.Workers = 1
	srv := NewServer(slowBuilder(), cfg)
	require.NoError(t, srv.Bind("127.0.0.1:0"))

	ln := srv.listeners[0]
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	// Give the worker a moment to accept the connection and register it,
	// then force-shut down: the slow handler never returns on its own, so
	// this only succeeds if Shutdown actively closes the connection.
	assert.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.conns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background(), false))

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	cancel()
	<-done
}

func TestServerServesHelloWorld(t *testing.T) {
	cfg := NewConfig()
	cfg.Workers = 1
	srv := NewServer(helloBuilder(), cfg)
	require.NoError(t, srv.Bind("127.0.0.1:0"))

	ln := srv.listeners[0]
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
