// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/examples/hello_world.rs, original_source/examples/unix.rs
//

// Command helloserver is a minimal HTTP/1.1 server answering every
// request with "Hello World!", demonstrating httpserver.Server bound to
// both a TCP address and, on unix platforms, a Unix domain socket.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dispatchkit/htpipe/h1"
	"github.com/dispatchkit/htpipe/httpserver"
	"github.com/dispatchkit/htpipe/service"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "TCP address to listen on")
	unixPath := flag.String("unix", "", "optional unix domain socket path to also listen on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	builder := service.BuilderFunc[service.Unit, h1.HandlerService](
		func(ctx context.Context, _ service.Unit) (h1.HandlerService, error) {
			return service.ServiceFunc[*h1.Request, *h1.Response](handleHello), nil
		},
	)

	cfg := httpserver.NewConfig()
	cfg.Logger = logger

	srv := httpserver.NewServer(builder, cfg)
	if err := srv.Bind(*addr); err != nil {
		logger.Error("bind failed", "addr", *addr, "error", err.Error())
		os.Exit(1)
	}
	if *unixPath != "" {
		if err := srv.BindUnix(*unixPath); err != nil {
			logger.Error("unix bind failed", "path", *unixPath, "error", err.Error())
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving", "addr", *addr)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func handleHello(ctx context.Context, req *h1.Request) (*h1.Response, error) {
	for {
		if _, err := req.Body.Next(ctx); err != nil {
			break
		}
	}
	body := []byte("Hello World!")
	return &h1.Response{
		Head:          h1.Head{StatusCode: 200, Reason: "OK"},
		Body:          &helloBody{data: body},
		ContentLength: int64(len(body)),
	}, nil
}

// helloBody is a one-shot [h1.BodyStream] yielding a single fixed chunk,
// then io.EOF on every subsequent call.
type helloBody struct {
	data []byte
	sent bool
}

func (b *helloBody) Next(ctx context.Context) ([]byte, error) {
	if b.sent {
		return nil, io.EOF
	}
	b.sent = true
	return b.data, nil
}
