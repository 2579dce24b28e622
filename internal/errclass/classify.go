// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from the nested errclass/{unix,windows}.go reference material
// bundled alongside bassosimone/nop (github.com/bassosimone/errclass),
// reworked from DNS-resolver error reasons to HTTP connection teardown
// reasons. No other package in this repository imports it; the
// classifier wired by default everywhere is service.DefaultErrClassifier.
//

// Package errclass classifies connection and I/O errors into short,
// stable labels suitable for structured log fields and metrics, without
// depending on the exact wrapped error chain a given platform produces.
package errclass

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Generic, platform-independent classes.
const (
	EGENERIC     = "EGENERIC"
	ETIMEDOUT    = "ETIMEDOUT"
	ECANCELED    = "ECANCELED"
	ECLOSED      = "ECLOSED"
	EEOF         = "EEOF"
	EADDRNOTAVAIL   = "EADDRNOTAVAIL"
	EADDRINUSE      = "EADDRINUSE"
	ECONNABORTED    = "ECONNABORTED"
	ECONNREFUSED    = "ECONNREFUSED"
	ECONNRESET      = "ECONNRESET"
	EHOSTUNREACH    = "EHOSTUNREACH"
	EINVAL          = "EINVAL"
	EINTR           = "EINTR"
	ENETDOWN        = "ENETDOWN"
	ENETUNREACH     = "ENETUNREACH"
	ENOBUFS         = "ENOBUFS"
	ENOTCONN        = "ENOTCONN"
	EPROTONOSUPPORT = "EPROTONOSUPPORT"
)

// Classify maps err to a short class label. A nil error classifies to "".
//
// The mapping order is: context errors, net.ErrClosed/io.EOF, then the
// platform syscall errno table defined in unix.go/windows.go, falling back
// to EGENERIC for anything unrecognized.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ETIMEDOUT
	case errors.Is(err, context.Canceled):
		return ECANCELED
	case errors.Is(err, net.ErrClosed):
		return ECLOSED
	case errors.Is(err, io.EOF):
		return EEOF
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if class, ok := classifyErrno(errno); ok {
			return class
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ETIMEDOUT
	}

	return EGENERIC
}

func classifyErrno(errno syscall.Errno) (string, bool) {
	switch errno {
	case errEADDRNOTAVAIL:
		return EADDRNOTAVAIL, true
	case errEADDRINUSE:
		return EADDRINUSE, true
	case errECONNABORTED:
		return ECONNABORTED, true
	case errECONNREFUSED:
		return ECONNREFUSED, true
	case errECONNRESET:
		return ECONNRESET, true
	case errEHOSTUNREACH:
		return EHOSTUNREACH, true
	case errEINVAL:
		return EINVAL, true
	case errEINTR:
		return EINTR, true
	case errENETDOWN:
		return ENETDOWN, true
	case errENETUNREACH:
		return ENETUNREACH, true
	case errENOBUFS:
		return ENOBUFS, true
	case errENOTCONN:
		return ENOTCONN, true
	case errEPROTONOSUPPORT:
		return EPROTONOSUPPORT, true
	}
	return "", false
}
