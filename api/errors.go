// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the hioload-tcp library.
// Transient would-block conditions are never surfaced through these: they
// are absorbed inside the transport engine. OS-level socket errors
// (connection refused, network unreachable, ...) pass through verbatim as
// unix.Errno values and can be matched with errors.Is.

package api

import "errors"

var (
	// ErrInvalidArgument reports a nil, empty or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBadDescriptor reports an operation on an unconfigured or
	// already-closed descriptor.
	ErrBadDescriptor = errors.New("bad descriptor")

	// ErrAddrUnavailable reports that a local or peer address could not
	// be resolved to a usable socket address.
	ErrAddrUnavailable = errors.New("address unavailable")

	// ErrClosed reports use of a connection or listener after teardown.
	ErrClosed = errors.New("transport is closed")

	// ErrNotSupported reports a platform without a reactor backend.
	ErrNotSupported = errors.New("operation not supported")
)
