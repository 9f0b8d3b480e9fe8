//go:build !linux && !darwin
// +build !linux,!darwin

// File: transport/tcp/sock_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without a supported socket backend.

package tcp

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

const sendFlags = 0

func newStreamSocket(family int) (int, error) {
	return -1, api.ErrNotSupported
}

func acceptConn(fd int) (int, unix.Sockaddr, error) {
	return -1, nil, api.ErrNotSupported
}

func suppressSigpipe(fd int) {}
