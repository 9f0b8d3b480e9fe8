// File: transport/tcp/sockopt.go
// Author: momentics <momentics@gmail.com>
//
// Socket options applied uniformly by the engine: linger disabled on every
// socket, address reuse on listen/bind sockets.

package tcp

import "golang.org/x/sys/unix"

// disableLinger turns off lingering so close never blocks in the kernel.
func disableLinger(fd int) {
	l := unix.Linger{Onoff: 0, Linger: 0}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &l); err != nil {
		log.Warnf("sockopt: SO_LINGER: %v", err)
	}
}

// setReuseAddr enables local address reuse for bind.
func setReuseAddr(fd int) {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		log.Warnf("sockopt: SO_REUSEADDR: %v", err)
	}
}

// isWouldBlock reports the transient "try again later" condition of a
// non-blocking socket operation. Never a terminal error.
func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
