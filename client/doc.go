// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/bassosimone-nop/doc.go (package documentation style)
//

// Package client composes dialing, connection observability, and HTTP
// round-tripping as a small pipeline of [service.Service] stages,
// grounded in the same request→result contract the server side (h1,
// httpserver) and the kernel (service) share.
//
// A typical client chains dialing and observation with [service.AndThen],
// then hands the observed connection to the round-tripper:
//
//	dial := client.NewDialFunc(cfg, "tcp", logger)
//	observe := client.NewObserveConnFunc(cfg, logger)
//	roundtrip := client.NewRoundTripFunc(cfg, logger)
//	connect := service.AndThen[netip.AddrPort, net.Conn, net.Conn](dial, observe)
//	conn, err := connect.Call(ctx, addr)
//	// ...
//	resp, err := roundtrip.Call(ctx, client.ConnRequest{Conn: conn, Request: req})
//
// The HTTP/2 engine is never reimplemented here: [RoundTripFunc] delegates
// to [golang.org/x/net/http2.Transport] once ALPN negotiation selects
// "h2", and to the standard library's HTTP/1.1 client machinery
// otherwise. Only the glue — dialing, observability, protocol selection —
// belongs to this package.
package client
