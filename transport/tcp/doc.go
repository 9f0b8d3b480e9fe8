// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the non-blocking TCP connection and listening
// socket engine of hioload-tcp.
//
// All sockets are non-blocking and driven by readiness notifications from an
// api.Reactor. The engine runs entirely inside reactor callbacks from one
// dispatch context: there is no internal locking, no goroutine per
// connection, and no blocking syscall. A connection that cannot make
// progress adjusts its reactor interest set and returns; control resumes on
// the next matching readiness event.
//
// Protocol layers (TLS, framing, tunneling) attach to a connection as
// api.Helper values and may transparently intercept establishment, outbound
// and inbound data without the engine knowing about them.
package tcp
