// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/doc.go (package documentation style)
// Adapted from: original_source/examples/hello_world.rs, original_source/examples/unix.rs
//

// Package httpserver binds listeners and drives accepted connections
// through an [h1.Dispatcher] per connection, replicating a per-worker
// service from a single [service.Builder] recipe (spec.md §4.1: "per
// worker, the server calls build(unit) to obtain a per-worker service").
//
// The acceptor/worker loop itself is treated as the thin shell the core
// spec calls out as an external collaborator; what lives here is exactly
// the glue between net.Listener, the builder recipe, and h1.Dispatcher.
package httpserver
