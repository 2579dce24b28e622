// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §6 External interfaces (bind/run/graceful shutdown)
// Adapted from: original_source/examples/hello_world.rs, original_source/examples/unix.rs
// Adapted from: _examples/bassosimone-nop/httpconn.go (per-connection driver invocation)
//

package httpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dispatchkit/htpipe/h1"
	"github.com/dispatchkit/htpipe/service"
)

// dateRefreshInterval bounds Date-header staleness to spec.md §9's
// 1-second tolerance.
const dateRefreshInterval = 1 * time.Second

// HandlerBuilder produces one [h1.HandlerService] per worker from a
// shared build-time argument, per spec.md §4.1 ("at server startup, the
// user supplies a builder closure; per worker, the server calls
// build(unit) to obtain a per-worker service").
type HandlerBuilder = service.Builder[service.Unit, h1.HandlerService]

// Server binds one or more listeners and dispatches every accepted
// connection through a worker-local handler built from a shared
// [HandlerBuilder] recipe.
type Server struct {
	Config  Config
	Builder HandlerBuilder

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}

	shutdownOnce sync.Once
	draining     chan struct{}
}

// NewServer returns a Server that will replicate builder across
// cfg.Workers workers.
func NewServer(builder HandlerBuilder, cfg Config) *Server {
	return &Server{
		Config:   cfg,
		Builder:  builder,
		conns:    make(map[net.Conn]struct{}),
		draining: make(chan struct{}),
	}
}

// Bind opens a TCP listener at addr and registers it with the server.
// Bind may be called more than once before Run to listen on multiple
// addresses.
func (s *Server) Bind(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()
	return nil
}

// Run drives every bound listener's accept loop, replicated across
// Config.Workers worker handler instances, until ctx is canceled or
// Shutdown is called. It returns the first fatal builder or accept error,
// or nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	listeners := append([]net.Listener(nil), s.listeners...)
	s.mu.Unlock()

	if len(listeners) == 0 {
		return errors.New("httpserver: Run called with no bound listener")
	}

	workers := s.Config.Workers
	if workers <= 0 {
		workers = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, ln := range listeners {
		ln := ln
		for i := 0; i < workers; i++ {
			group.Go(func() error {
				return s.runWorker(gctx, ln)
			})
		}
	}

	group.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.draining:
		}
		for _, ln := range listeners {
			_ = ln.Close()
		}
		return nil
	})

	err := group.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// runWorker builds one handler instance (spec.md §4.1 build(unit)) and
// accepts connections from ln until it closes. Every dispatcher this
// worker drives shares one Date-header cache, refreshed by a single
// ticker owned by the worker goroutine (spec.md §9: "refreshed by a timer
// owned by each worker, not globally"), rather than each connection
// minting and refreshing its own.
func (s *Server) runWorker(ctx context.Context, ln net.Listener) error {
	handler, err := s.Builder.Build(ctx, service.Unit{})
	if err != nil {
		return &h1.BuilderError{Err: err}
	}

	dates := h1.NewDateCache(nil)
	ticker := time.NewTicker(dateRefreshInterval)
	defer ticker.Stop()
	stop := make(chan struct{})
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		for {
			select {
			case <-ticker.C:
				dates.Refresh()
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	defer func() { <-tickerDone }()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.serveConn(ctx, watchCancel(ctx, conn), handler, dates)
	}
}

// serveConn drives one accepted connection through a fresh [h1.Dispatcher],
// registering it so Shutdown(ctx, false) can force-close it immediately.
func (s *Server) serveConn(ctx context.Context, conn net.Conn, handler h1.HandlerService, dates *h1.DateCache) {
	s.Config.Logger.Info("connectionAccepted",
		"localAddr", conn.LocalAddr().String(),
		"remoteAddr", conn.RemoteAddr().String(),
	)

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	dispatcher := h1.NewDispatcher(conn, handler, s.Config.Dispatcher)
	dispatcher.SetDates(dates)
	dispatcher.Logger = s.Config.Logger
	dispatcher.Classify = s.Config.ErrClassifier

	if err := dispatcher.Serve(ctx); err != nil {
		s.Config.Logger.Debug("connectionTerminated",
			"error", err.Error(),
			"errClass", s.Config.ErrClassifier.Classify(err),
		)
	}
}

// Shutdown stops accepting new connections. When graceful is true,
// already-accepted connections are allowed to finish their current
// request/response cycle and keep-alive timer naturally (spec.md §6:
// "graceful (drain in-flight connections, then stop) or force (close all
// immediately)"); the in-flight-drain itself is each h1.Dispatcher's own
// keep-alive and response-completion logic, not something Shutdown
// re-implements. When graceful is false, bound listeners are closed
// immediately (which Run surfaces as net.ErrClosed, folded into a nil
// return from Run) and every currently registered in-flight connection is
// force-closed too, unblocking its dispatcher's pending Read/Write
// instead of leaving it to run to its next keep-alive tick or natural
// completion.
func (s *Server) Shutdown(ctx context.Context, graceful bool) error {
	s.shutdownOnce.Do(func() {
		close(s.draining)
	})
	if !graceful {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, ln := range s.listeners {
			_ = ln.Close()
		}
		for conn := range s.conns {
			_ = conn.Close()
		}
	}
	return nil
}
