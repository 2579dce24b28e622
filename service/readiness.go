// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/service/src/ready/{and_then,map,map_err,enclosed_fn}.rs
// Adapted from: original_source/service/src/middleware/unchecked_ready.rs (UncheckedReady)
//

package service

import "context"

// Readiness is an optional capacity/back-pressure signal layered on top of
// a built [Service]. Ready returns a non-nil error when the service is
// (temporarily or permanently) unable to accept more work; callers that
// care about back-pressure should check Ready before Call, though nothing
// in this package enforces that — Readiness is advisory, the way the
// source this is adapted from treats it as a distinct, optional trait.
type Readiness interface {
	Ready(ctx context.Context) error
}

// ReadyService pairs a [Service] with a [Readiness] signal.
type ReadyService[Req, Res any] interface {
	Service[Req, Res]
	Readiness
}

// UncheckedReady wraps any [Service] with a [Readiness] signal that always
// reports ready, for services with no real capacity signal to expose
// (grounded on the source's UncheckedReady middleware, which performs the
// identical unconditional-ready wrapping).
func UncheckedReady[Req, Res any](inner Service[Req, Res]) ReadyService[Req, Res] {
	return &uncheckedReadyService[Req, Res]{inner: inner}
}

type uncheckedReadyService[Req, Res any] struct {
	inner Service[Req, Res]
}

func (u *uncheckedReadyService[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return u.inner.Call(ctx, req)
}

func (u *uncheckedReadyService[Req, Res]) Ready(ctx context.Context) error {
	return nil
}

// AndThenReady composes [Readiness] the way [AndThen] composes [Service]:
// the pipeline is ready only once both stages report ready.
func AndThenReady(first, second Readiness) Readiness {
	return &andThenReadiness{first: first, second: second}
}

type andThenReadiness struct {
	first  Readiness
	second Readiness
}

func (r *andThenReadiness) Ready(ctx context.Context) error {
	if err := r.first.Ready(ctx); err != nil {
		return err
	}
	return r.second.Ready(ctx)
}
