// SPDX-License-Identifier: GPL-3.0-or-later

package h1

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchkit/htpipe/service"
)

func helloHandler(status int, reason, body string) HandlerService {
	return service.ServiceFunc[*Request, *Response](func(ctx context.Context, req *Request) (*Response, error) {
		// Drain the request body so the dispatcher's own draining logic
		// isn't exercising a handler bug in these tests.
		for {
			_, err := req.Body.Next(ctx)
			if err != nil {
				break
			}
		}
		return &Response{
			Head:          Head{StatusCode: status, Reason: reason},
			Body:          &sliceBody{chunks: [][]byte{[]byte(body)}},
			ContentLength: int64(len(body)),
		}, nil
	})
}

func runDispatcher(t *testing.T, handler HandlerService, configure func(*Dispatcher)) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	cfg := NewConfig()
	cfg.KeepAliveTimeout = 2 * time.Second

	d := NewDispatcher(server, handler, cfg)
	if configure != nil {
		configure(d)
	}
	go func() {
		_ = d.Serve(context.Background())
	}()
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDispatcherScenario1_SimpleGet(t *testing.T) {
	client := runDispatcher(t, helloHandler(200, "OK", "hello"), nil)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)

	headers := readHeaders(t, reader)
	assert.Equal(t, "5", headers["Content-Length"])

	body := make([]byte, 5)
	_, err = io.ReadFull(reader, body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestDispatcherScenario2_PipelinedRequestsReuseConnection(t *testing.T) {
	client := runDispatcher(t, helloHandler(200, "OK", "hi"), nil)

	_, err := client.Write([]byte(
		"GET /a HTTP/1.1\r\nHost: x\r\n\r\n" +
			"GET /b HTTP/1.1\r\nHost: x\r\n\r\n",
	))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	for i := 0; i < 2; i++ {
		statusLine, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)
		headers := readHeaders(t, reader)
		assert.Equal(t, "2", headers["Content-Length"])
		body := make([]byte, 2)
		_, err = io.ReadFull(reader, body)
		require.NoError(t, err)
		assert.Equal(t, "hi", string(body))
	}
}

func TestDispatcherScenario3_ExpectContinue(t *testing.T) {
	var gotBody string
	handler := service.ServiceFunc[*Request, *Response](func(ctx context.Context, req *Request) (*Response, error) {
		var b []byte
		for {
			chunk, err := req.Body.Next(ctx)
			if err != nil {
				break
			}
			b = append(b, chunk...)
		}
		gotBody = string(b)
		return &Response{Head: Head{StatusCode: 200, Reason: "OK"}, ContentLength: 0}, nil
	})
	client := runDispatcher(t, handler, nil)

	_, err := client.Write([]byte("POST /x HTTP/1.1\r\nHost: x\r\nExpect: 100-continue\r\nContent-Length: 3\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	interim, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 100 Continue\r\n", interim)
	blank, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\r\n", blank)

	_, err = client.Write([]byte("abc"))
	require.NoError(t, err)

	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)
	_ = readHeaders(t, reader)
	assert.Equal(t, "abc", gotBody)
}

func TestDispatcherScenario4_ConnectionClose(t *testing.T) {
	client := runDispatcher(t, helloHandler(200, "OK", "bye"), nil)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)
	_ = readHeaders(t, reader)
	body := make([]byte, 3)
	_, err = io.ReadFull(reader, body)
	require.NoError(t, err)

	// The server should close its side after the response; further reads
	// observe EOF.
	_, err = reader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDispatcherScenario5_MalformedRequestLine(t *testing.T) {
	client := runDispatcher(t, helloHandler(200, "OK", "unused"), nil)

	_, err := client.Write([]byte("GET\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 400 Bad Request\r\n", statusLine)
}

func TestDispatcherScenario6_ServiceErrorBeforeAnyBytes(t *testing.T) {
	boom := errors.New("handler exploded")
	handler := service.ServiceFunc[*Request, *Response](func(ctx context.Context, req *Request) (*Response, error) {
		return nil, boom
	})
	client := runDispatcher(t, handler, nil)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error\r\n", statusLine)
}

// TestDispatcherScenario7_ReadBackpressureBoundsBuffer exercises spec.md
// §8 property #5: the read buffer stays bounded even when a request body
// arrives in many more bytes than the configured high-water mark, because
// Config.ReadBufferHighWaterMark caps how much a single fill can
// accumulate rather than letting it grow to hold the whole body at once.
func TestDispatcherScenario7_ReadBackpressureBoundsBuffer(t *testing.T) {
	const watermark = 8
	const bodySize = 8192

	var received int
	handler := service.ServiceFunc[*Request, *Response](func(ctx context.Context, req *Request) (*Response, error) {
		for {
			chunk, err := req.Body.Next(ctx)
			if err != nil {
				break
			}
			received += len(chunk)
		}
		return &Response{Head: Head{StatusCode: 200, Reason: "OK"}, ContentLength: 0}, nil
	})

	client, server := net.Pipe()
	cfg := NewConfig()
	cfg.KeepAliveTimeout = 2 * time.Second
	cfg.ReadBufferHighWaterMark = watermark
	cfg.ReadBufferInitialCapacity = watermark

	d := NewDispatcher(server, handler, cfg)
	go func() { _ = d.Serve(context.Background()) }()
	t.Cleanup(func() { client.Close() })

	body := make([]byte, bodySize)
	for i := range body {
		body[i] = byte('a' + i%26)
	}

	writeErr := make(chan error, 1)
	go func() {
		header := fmt.Sprintf("POST /x HTTP/1.1\r\nHost: x\r\nContent-Length: %d\r\n\r\n", bodySize)
		if _, err := client.Write([]byte(header)); err != nil {
			writeErr <- err
			return
		}
		_, err := client.Write(body)
		writeErr <- err
	}()

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", statusLine)
	_ = readHeaders(t, reader)

	require.NoError(t, <-writeErr)
	assert.Equal(t, bodySize, received)

	// The buffer never needed to grow much past the configured watermark
	// to hold the whole body: back-pressure capped each fill instead of
	// letting capacity balloon to the full 8KiB in one shot.
	assert.LessOrEqual(t, cap(d.readBuf.data), watermark*4)
}

func readHeaders(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	headers := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			return headers
		}
		name, value, ok := splitHeaderLine(line)
		require.True(t, ok, "malformed header line %q", line)
		headers[name] = value
	}
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	line = line[:len(line)-2] // trim CRLF
	for i := 0; i < len(line); i++ {
		if line[i] == ':' {
			name = line[:i]
			value = line[i+1:]
			for len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
			return name, value, true
		}
	}
	return "", "", false
}
