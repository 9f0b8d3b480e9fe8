//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without a poller backend.

package reactor

import "github.com/momentics/hioload-tcp/api"

// newReactor returns an error on unsupported platforms.
func newReactor() (PollReactor, error) {
	return nil, api.ErrNotSupported
}
