// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the composition kernel shared by the HTTP
// server and client in this repository.
//
// # Core Abstraction
//
// The package is built around a single interface:
//
//	type Service[Req, Res any] interface {
//		Call(ctx context.Context, req Req) (Res, error)
//	}
//
// A Service represents one request/response operation, callable repeatedly
// and concurrently through a shared pointer receiver; any interior mutation
// is the implementation's own concern. Services are composed with
// [AndThen], [Map], [MapErr], [Enclosed], [EnclosedFn], and [Choice] into
// pipelines where the compiler verifies that request/response types line
// up across stages.
//
// # Builders
//
// A [Builder] has the same shape as a Service but a different role: it
// builds a Service from a build-time argument. Builders are invoked once
// per worker at server startup, and once per middleware layer when used as
// `Build(inner) -> wrapped`.
//
// # Object-safe dispatch
//
// Unlike the Rust source this design is adapted from, a Go interface value
// is already "object safe": storing heterogeneous Service implementations
// behind a single interface reference costs nothing extra, so there is no
// separate boxed/type-erased Service type. [BoxService] is a plain alias
// kept for call sites (routers, middleware stacks) that want the name to
// say "I hold this dynamically" — see the package-level equivalence note
// on [BoxService].
//
// # Error domain
//
// Every Service returns a plain `error`, so two composed stages already
// share an error domain with no declared conversion step; Go's error
// interface plays the role that an associated error type plus a `From`
// bound plays in the source this is adapted from.
package service
