//go:build darwin
// +build darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Darwin socket plumbing: no accept4/SOCK_NONBLOCK, no MSG_NOSIGNAL.
// SIGPIPE is suppressed per socket with SO_NOSIGPIPE instead.

package tcp

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const sendFlags = 0

// newStreamSocket creates a non-blocking TCP socket for the given family.
func newStreamSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("nonblock set: %w", err)
	}
	suppressSigpipe(fd)
	return fd, nil
}

// acceptConn accepts one pending client and makes it non-blocking.
func acceptConn(fd int) (int, unix.Sockaddr, error) {
	nfd, sa, err := unix.Accept(fd)
	if err != nil {
		return -1, nil, err
	}
	unix.CloseOnExec(nfd)
	if err := unix.SetNonblock(nfd, true); err != nil {
		_ = unix.Close(nfd)
		return -1, nil, fmt.Errorf("nonblock set: %w", err)
	}
	suppressSigpipe(nfd)
	return nfd, sa, nil
}

// suppressSigpipe disables SIGPIPE delivery for writes on a broken pipe.
func suppressSigpipe(fd int) {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1)
}
