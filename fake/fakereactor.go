// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides a deterministic in-memory Reactor for tests:
// registrations are recorded, readiness events are injected by hand, and
// every operation is logged so tests can assert ordering guarantees such as
// deregister-before-close.
package fake

import (
	"fmt"

	"github.com/momentics/hioload-tcp/api"
)

type registration struct {
	set api.Interest
	cb  api.ReadyFunc
}

// Reactor is a test double for api.Reactor.
type Reactor struct {
	regs map[int]*registration

	// Ops records every mutation, e.g. "register 5", "modify 5 3",
	// "deregister 5", in call order.
	Ops []string
}

// NewReactor returns an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{regs: make(map[int]*registration)}
}

// Register implements api.Reactor.
func (r *Reactor) Register(fd int, set api.Interest, cb api.ReadyFunc) error {
	if _, ok := r.regs[fd]; ok {
		return fmt.Errorf("fake: fd %d already registered", fd)
	}
	r.regs[fd] = &registration{set: set, cb: cb}
	r.Ops = append(r.Ops, fmt.Sprintf("register %d", fd))
	return nil
}

// Modify implements api.Reactor.
func (r *Reactor) Modify(fd int, set api.Interest) error {
	reg, ok := r.regs[fd]
	if !ok {
		return fmt.Errorf("fake: fd %d not registered", fd)
	}
	reg.set = set
	r.Ops = append(r.Ops, fmt.Sprintf("modify %d %d", fd, set))
	return nil
}

// Deregister implements api.Reactor.
func (r *Reactor) Deregister(fd int) error {
	if _, ok := r.regs[fd]; !ok {
		return fmt.Errorf("fake: fd %d not registered", fd)
	}
	delete(r.regs, fd)
	r.Ops = append(r.Ops, fmt.Sprintf("deregister %d", fd))
	return nil
}

// Fire injects a readiness event. Level-triggered semantics: only the
// conditions the registration is interested in (plus Exception) are
// delivered. Reports whether a callback ran.
func (r *Reactor) Fire(fd int, ready api.Interest) bool {
	reg, ok := r.regs[fd]
	if !ok {
		return false
	}
	eff := ready & (reg.set | api.Exception)
	if eff == 0 {
		return false
	}
	reg.cb(eff)
	return true
}

// Registered reports whether fd currently has a registration.
func (r *Reactor) Registered(fd int) bool {
	_, ok := r.regs[fd]
	return ok
}

// InterestOf returns the current interest set of fd.
func (r *Reactor) InterestOf(fd int) (api.Interest, bool) {
	reg, ok := r.regs[fd]
	if !ok {
		return 0, false
	}
	return reg.set, true
}
