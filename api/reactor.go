// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for the event-driven IO Reactor the
// transport engine registers descriptor interest with. The reactor is an
// external collaborator: the engine only consumes this contract and never
// assumes a particular polling backend (epoll, kqueue, test fake).

package api

// Interest is a bit set of readiness conditions for one descriptor.
type Interest uint8

const (
	// Readable reports that a read on the descriptor will not block.
	Readable Interest = 1 << iota
	// Writable reports that a write on the descriptor will not block.
	Writable
	// Exception reports an exceptional condition (error/hangup).
	Exception
)

// Has reports whether all bits of want are present in the set.
func (i Interest) Has(want Interest) bool {
	return i&want == want
}

// ReadyFunc is invoked by the reactor with the conditions that are ready.
// All invocations for one reactor happen from a single dispatch context.
type ReadyFunc func(ready Interest)

// Reactor is the level-triggered readiness-notification contract.
//
// Registrations are per-descriptor: Register associates a callback with fd,
// Modify widens or narrows the interest set of an existing registration, and
// Deregister cancels it. After Deregister returns, the callback is never
// invoked again for that descriptor.
type Reactor interface {
	// Register adds fd with the given interest set and callback.
	Register(fd int, set Interest, cb ReadyFunc) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd int, set Interest) error

	// Deregister removes fd from the reactor watch set.
	Deregister(fd int) error
}
