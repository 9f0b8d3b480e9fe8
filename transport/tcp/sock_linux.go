//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Linux socket plumbing: non-blocking stream sockets via SOCK_NONBLOCK and
// SIGPIPE suppression via MSG_NOSIGNAL on every send.

package tcp

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sendFlags is passed to every outbound send syscall.
const sendFlags = unix.MSG_NOSIGNAL

// newStreamSocket creates a non-blocking TCP socket for the given family.
func newStreamSocket(family int) (int, error) {
	fd, err := unix.Socket(family,
		unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC,
		unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	return fd, nil
}

// acceptConn accepts one pending client, already non-blocking.
func acceptConn(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}

// suppressSigpipe is a no-op on Linux; MSG_NOSIGNAL covers it per send.
func suppressSigpipe(fd int) {}
