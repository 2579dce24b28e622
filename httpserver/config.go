// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/config.go
// Adapted from: spec.md §5 Concurrency & resource model (N worker threads,
// each with its own scheduler instance; connections pinned to the worker
// that accepted them)
//

package httpserver

import (
	"runtime"

	"github.com/dispatchkit/htpipe/h1"
	"github.com/dispatchkit/htpipe/service"
)

// Config bounds a [Server]'s behavior.
type Config struct {
	// Workers is the number of independent accept loops the server runs,
	// each with its own replicated handler service (spec.md §5). NewConfig
	// sets it to runtime.GOMAXPROCS(0); Run uses a single worker when it is
	// zero or negative.
	Workers int

	// Dispatcher is forwarded to every [h1.Dispatcher] the server
	// constructs for an accepted connection.
	Dispatcher h1.Config

	// Logger receives lifecycle events (accept, close, worker start/stop).
	Logger service.SLogger

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier service.ErrClassifier
}

// NewConfig returns a Config with the package's defaults.
func NewConfig() Config {
	return Config{
		Workers:       runtime.GOMAXPROCS(0),
		Dispatcher:    h1.NewConfig(),
		Logger:        service.DefaultSLogger(),
		ErrClassifier: service.DefaultErrClassifier,
	}
}
