// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop func.go (the Func[A, B] kernel type)
//

package service

import "context"

// Service is the kernel's atom: given a borrowed receiver and an owned
// request of type Req, it yields either a response of type Res or an
// error, synchronously from the caller's perspective (callers that need
// concurrency run Call inside a goroutine; ctx governs cancellation).
//
// Implementations must tolerate concurrent callers sharing the Service
// through the same pointer; any mutation is the implementation's internal
// concern. A Service must not require being moved to be invoked — a
// pointer receiver method already satisfies this in Go.
type Service[Req, Res any] interface {
	Call(ctx context.Context, req Req) (Res, error)
}

// ServiceFunc adapts a plain function to the [Service] interface.
//
// Use this to build ad-hoc services from closures when nothing in this
// package's combinators fits.
type ServiceFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Call implements [Service].
func (f ServiceFunc[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// BoxService is the object-safe form of [Service].
//
// In the source this package is adapted from, a second Service trait
// exists because storing heterogeneous async services behind a trait
// object requires boxing the returned future. Go has no such distinction:
// an interface value is already dynamically dispatched and the call is
// synchronous from the caller's point of view, so BoxService is the exact
// same type as [Service]. It exists only so that code storing services
// dynamically (routers, middleware stacks) can say so at the type level.
//
// Equivalence: for any svc implementing Service[Req, Res], using svc as a
// BoxService[Req, Res] and calling it behaves identically to calling it
// through the static Service interface — there is no wrapping step.
type BoxService[Req, Res any] = Service[Req, Res]
