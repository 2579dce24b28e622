// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop compose.go (Compose2..Compose8, Apply, ConstFunc)
// Adapted from: original_source/service/src/service/{and_then,map,map_err,enclosed,enclosed_fn}.rs
// Adapted from: original_source/service/src/build/{and_then,enclosed,enclosed_fn}.rs
// Adapted from: original_source/service/src/pipeline/marker.rs (mode taxonomy)
//
// The source this is adapted from dispatches each pipeline mode through an
// overlapping trait impl selected by a marker type. Go has no negative
// reasoning / specialization, so per the corresponding design note in this
// repository's specification, each mode below is a concrete unexported
// type returned by an exported combinator function, rather than a single
// generic "Pipeline" type with mode-dependent behavior.
//

package service

import (
	"context"
	"errors"
)

// AndThen sequences two services: the response of a becomes the request of
// b. If a fails, b is never called and a's error is returned.
func AndThen[Req, Mid, Res any](a Service[Req, Mid], b Service[Mid, Res]) Service[Req, Res] {
	return &andThenService[Req, Mid, Res]{first: a, second: b}
}

type andThenService[Req, Mid, Res any] struct {
	first  Service[Req, Mid]
	second Service[Mid, Res]
}

func (p *andThenService[Req, Mid, Res]) Call(ctx context.Context, req Req) (Res, error) {
	mid, err := p.first.Call(ctx, req)
	if err != nil {
		var zero Res
		return zero, err
	}
	return p.second.Call(ctx, mid)
}

// Pair holds the two services produced by [BuildAndThen] once both
// builders have completed.
type Pair[S1, S2 any] struct {
	First  S1
	Second S2
}

// BuildAndThen builds two independent services against the same build-time
// argument, concurrently, and joins them into a [Pair]. Either builder
// failing fails the whole build; the other builder still runs to
// completion (its result, if any, is discarded) so that no goroutine leaks
// waiting on a send nobody receives.
func BuildAndThen[Arg, S1, S2 any](a Builder[Arg, S1], b Builder[Arg, S2]) Builder[Arg, Pair[S1, S2]] {
	return BuilderFunc[Arg, Pair[S1, S2]](func(ctx context.Context, arg Arg) (Pair[S1, S2], error) {
		type firstResult struct {
			svc S1
			err error
		}
		ch := make(chan firstResult, 1)
		go func() {
			svc, err := a.Build(ctx, arg)
			ch <- firstResult{svc, err}
		}()

		second, errSecond := b.Build(ctx, arg)
		first := <-ch

		var zero Pair[S1, S2]
		if first.err != nil {
			return zero, first.err
		}
		if errSecond != nil {
			return zero, errSecond
		}
		return Pair[S1, S2]{First: first.svc, Second: second}, nil
	})
}

// Map applies a pure function to a's response.
func Map[Req, Res, Res2 any](a Service[Req, Res], f func(Res) Res2) Service[Req, Res2] {
	return &mapService[Req, Res, Res2]{first: a, f: f}
}

type mapService[Req, Res, Res2 any] struct {
	first Service[Req, Res]
	f     func(Res) Res2
}

func (p *mapService[Req, Res, Res2]) Call(ctx context.Context, req Req) (Res2, error) {
	res, err := p.first.Call(ctx, req)
	if err != nil {
		var zero Res2
		return zero, err
	}
	return p.f(res), nil
}

// BuildMap builds the inner service, then wraps it with f applied to every
// subsequent call's response.
func BuildMap[Arg, Req, Res, Res2 any](inner Builder[Arg, Service[Req, Res]], f func(Res) Res2) Builder[Arg, Service[Req, Res2]] {
	return BuilderFunc[Arg, Service[Req, Res2]](func(ctx context.Context, arg Arg) (Service[Req, Res2], error) {
		svc, err := inner.Build(ctx, arg)
		if err != nil {
			return nil, err
		}
		return Map(svc, f), nil
	})
}

// MapErr applies a pure function to a's error, the dual of [Map] over the
// error channel. f is only invoked when a.Call returns a non-nil error.
func MapErr[Req, Res any](a Service[Req, Res], f func(error) error) Service[Req, Res] {
	return &mapErrService[Req, Res]{first: a, f: f}
}

type mapErrService[Req, Res any] struct {
	first Service[Req, Res]
	f     func(error) error
}

func (p *mapErrService[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	res, err := p.first.Call(ctx, req)
	if err != nil {
		return res, p.f(err)
	}
	return res, nil
}

// BuildMapErr is the builder-time dual of [BuildMap]: it builds the inner
// service, then wraps it with [MapErr].
func BuildMapErr[Arg, Req, Res any](inner Builder[Arg, Service[Req, Res]], f func(error) error) Builder[Arg, Service[Req, Res]] {
	return BuilderFunc[Arg, Service[Req, Res]](func(ctx context.Context, arg Arg) (Service[Req, Res], error) {
		svc, err := inner.Build(ctx, arg)
		if err != nil {
			return nil, err
		}
		return MapErr(svc, f), nil
	})
}

// Enclosed is the builder-mode-only middleware combinator: it builds inner
// from arg, then builds mw from the resulting service, returning mw's
// service. This is how middleware is layered onto a per-worker service at
// startup — the wrapper is itself built, not just a pure function.
func Enclosed[Arg, S, S2 any](inner Builder[Arg, S], mw Builder[S, S2]) Builder[Arg, S2] {
	return BuilderFunc[Arg, S2](func(ctx context.Context, arg Arg) (S2, error) {
		svc, err := inner.Build(ctx, arg)
		if err != nil {
			var zero S2
			return zero, err
		}
		return mw.Build(ctx, svc)
	})
}

// EnclosedFn wraps inner as a service inside an async function of
// (inner, req). The function receives the shared inner service and may
// call it zero, one, or many times.
func EnclosedFn[Req, Res any](inner Service[Req, Res], f func(ctx context.Context, inner Service[Req, Res], req Req) (Res, error)) Service[Req, Res] {
	return &enclosedFnService[Req, Res]{inner: inner, f: f}
}

type enclosedFnService[Req, Res any] struct {
	inner Service[Req, Res]
	f     func(ctx context.Context, inner Service[Req, Res], req Req) (Res, error)
}

func (p *enclosedFnService[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return p.f(ctx, p.inner, req)
}

// Identity is the EnclosedFn law witness: EnclosedFn(a, Identity) ≡ a.
func Identity[Req, Res any](ctx context.Context, inner Service[Req, Res], req Req) (Res, error) {
	return inner.Call(ctx, req)
}

// BuildEnclosedFn builds inner once per worker and re-wraps the freshly
// built service with the (already-constructed, shared) function f.
func BuildEnclosedFn[Arg, Req, Res any](
	inner Builder[Arg, Service[Req, Res]],
	f func(ctx context.Context, inner Service[Req, Res], req Req) (Res, error),
) Builder[Arg, Service[Req, Res]] {
	return BuilderFunc[Arg, Service[Req, Res]](func(ctx context.Context, arg Arg) (Service[Req, Res], error) {
		svc, err := inner.Build(ctx, arg)
		if err != nil {
			return nil, err
		}
		return EnclosedFn(svc, f), nil
	})
}

// ErrChoiceUnset is returned by a zero-value [Choice] (neither variant
// set), which is a programming error in any pipeline that reaches it.
var ErrChoiceUnset = errors.New("service: choice has neither variant set")

// Choice is a tagged binary union of two services sharing the same
// request/response/error triple. Call dispatches by tag. Build a Choice
// with [First] or [Second].
type Choice[Req, Res any] struct {
	first  Service[Req, Res]
	second Service[Req, Res]
	isFirst bool
}

// First builds a [Choice] selecting the first variant.
func First[Req, Res any](svc Service[Req, Res]) Choice[Req, Res] {
	return Choice[Req, Res]{first: svc, isFirst: true}
}

// Second builds a [Choice] selecting the second variant.
func Second[Req, Res any](svc Service[Req, Res]) Choice[Req, Res] {
	return Choice[Req, Res]{second: svc, isFirst: false}
}

// Call implements [Service] by dispatching to whichever variant is set.
func (c Choice[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	if c.isFirst {
		if c.first == nil {
			var zero Res
			return zero, ErrChoiceUnset
		}
		return c.first.Call(ctx, req)
	}
	if c.second == nil {
		var zero Res
		return zero, ErrChoiceUnset
	}
	return c.second.Call(ctx, req)
}

var _ Service[int, int] = Choice[int, int]{}
