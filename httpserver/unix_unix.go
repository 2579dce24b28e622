//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/examples/unix.rs (bind_unix)
//

package httpserver

import "net"

// BindUnix opens a Unix domain socket listener at path and registers it
// with the server, mirroring Bind for TCP. Available only on unix
// platforms.
func (s *Server) BindUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()
	return nil
}
