// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral reactor surface. The transport engine only depends on
// api.Reactor; Poll and Close belong to whoever owns the event loop.

package reactor

import "github.com/momentics/hioload-tcp/api"

// PollReactor is a reactor plus the event-loop half of its lifecycle.
type PollReactor interface {
	api.Reactor

	// Poll waits up to timeoutMs for readiness events and dispatches the
	// registered callbacks synchronously from the calling goroutine.
	// timeoutMs < 0 blocks indefinitely. Returns the number of events
	// dispatched.
	Poll(timeoutMs int) (int, error)

	// Close releases the poller backend.
	Close() error
}

// New constructs the platform reactor (epoll on Linux).
func New() (PollReactor, error) {
	return newReactor()
}
