// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop unit.go
//

package service

// Unit is a type holding no information (analogous to an explicit `void`
// in C/C++, or `()` in Rust).
//
// Use Unit as the Req type for a [Service] or [Builder] that takes no
// meaningful argument — e.g. the per-worker build-time argument a server
// passes when it has no per-worker configuration to thread through.
type Unit struct{}
