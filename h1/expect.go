// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.6 Expect and Upgrade collaborators, §9 ("injected
// services, not inheritance points... may be disabled as a zero-sized no-op")
//

package h1

import "context"

// ExpectDecision is what an [ExpectService] returns for a request that
// carried "Expect: 100-continue".
type ExpectDecision struct {
	// Approved, when true, causes the dispatcher to emit "100 Continue"
	// and proceed to read the body. Head, if non-nil, replaces the
	// request head going forward (the expect service may want to inject
	// or rewrite headers).
	Approved bool
	Head     *Head

	// EarlyResponse is emitted verbatim, and the request body is never
	// read, when Approved is false.
	EarlyResponse *Response
}

// ExpectService is the optional policy collaborator that authorizes or
// rejects a request before its body is consumed.
type ExpectService interface {
	Decide(ctx context.Context, head Head) (ExpectDecision, error)
}

// ExpectServiceFunc adapts a plain function to [ExpectService].
type ExpectServiceFunc func(ctx context.Context, head Head) (ExpectDecision, error)

// Decide implements [ExpectService].
func (f ExpectServiceFunc) Decide(ctx context.Context, head Head) (ExpectDecision, error) {
	return f(ctx, head)
}

// NoOpExpectService always approves unchanged, the zero-cost default
// when a builder does not configure an expect collaborator.
type NoOpExpectService struct{}

// Decide implements [ExpectService].
func (NoOpExpectService) Decide(ctx context.Context, head Head) (ExpectDecision, error) {
	return ExpectDecision{Approved: true}, nil
}
