//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Linux epoll implementation. Level-triggered on purpose: the transport
// engine narrows and widens interest sets instead of re-arming edges.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

// epollReactor implements PollReactor using Linux epoll.
type epollReactor struct {
	epfd      int      // epoll file descriptor
	callbacks sync.Map // map[int]api.ReadyFunc
}

// newReactor creates a new instance of epollReactor.
func newReactor() (PollReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

func epollEvents(set api.Interest) uint32 {
	var ev uint32
	if set.Has(api.Readable) {
		ev |= unix.EPOLLIN
	}
	if set.Has(api.Writable) {
		ev |= unix.EPOLLOUT
	}
	if set.Has(api.Exception) {
		ev |= unix.EPOLLPRI
	}
	return ev
}

// Register adds a file descriptor to the epoll watch list.
func (r *epollReactor) Register(fd int, set api.Interest, cb api.ReadyFunc) error {
	ev := unix.EpollEvent{Events: epollEvents(set), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	r.callbacks.Store(fd, cb)
	return nil
}

// Modify replaces the interest set of a registered descriptor.
func (r *epollReactor) Modify(fd int, set api.Interest) error {
	ev := unix.EpollEvent{Events: epollEvents(set), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

// Deregister removes a file descriptor from the epoll watch list.
func (r *epollReactor) Deregister(fd int) error {
	r.callbacks.Delete(fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Poll blocks and waits for events on registered file descriptors.
// timeoutMs < 0 means block indefinitely.
func (r *epollReactor) Poll(timeoutMs int) (int, error) {
	const maxEvents = 128
	var events [maxEvents]unix.EpollEvent

	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal, normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		ev := events[i]

		// Looked up per event: a callback earlier in this batch may have
		// deregistered this descriptor, and a deregistered descriptor
		// must never see another callback.
		val, ok := r.callbacks.Load(int(ev.Fd))
		if !ok {
			continue
		}

		var ready api.Interest
		if ev.Events&unix.EPOLLIN != 0 {
			ready |= api.Readable
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			ready |= api.Writable
		}
		if ev.Events&(unix.EPOLLPRI|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			ready |= api.Exception
		}

		cb, _ := val.(api.ReadyFunc)
		// Deferred recover keeps the reactor alive across handler panics.
		func() {
			defer func() { _ = recover() }()
			cb(ready)
		}()
		dispatched++
	}

	return dispatched, nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
