// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/service/src/factory/mod.rs (ServiceFactory)
//

package service

import "context"

// Builder builds a [Service] from a build-time argument.
//
// Builders are invoked in two stations of a server's lifecycle: once per
// worker at startup, with a build-time argument supplied by the caller
// (often [Unit] when there is nothing worker-specific to pass), and once
// per middleware layer, where Build receives an already-built inner
// service and returns a wrapped one.
//
// A Builder must be safe to invoke repeatedly — the server calls Build
// once per worker from the same Builder value to replicate a recipe
// across workers, the way the source this is adapted from requires
// builders to be Clone.
type Builder[Arg, S any] interface {
	Build(ctx context.Context, arg Arg) (S, error)
}

// BuilderFunc adapts a plain function to the [Builder] interface.
type BuilderFunc[Arg, S any] func(ctx context.Context, arg Arg) (S, error)

// Build implements [Builder].
func (f BuilderFunc[Arg, S]) Build(ctx context.Context, arg Arg) (S, error) {
	return f(ctx, arg)
}
