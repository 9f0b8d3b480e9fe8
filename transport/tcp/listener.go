// File: transport/tcp/listener.go
// Author: momentics <momentics@gmail.com>
//
// Listener owns a bound, listening descriptor plus a one-deep cache of the
// most recently accepted client descriptor. Each inbound connection event
// accepts exactly one client and hands the application a one-shot token to
// claim or reject it.

package tcp

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

// DefaultBacklog is the listen queue depth used by the Listen convenience.
const DefaultBacklog = 128

// ConnHandler is invoked for every accepted client. The application must
// synchronously Claim or Reject the token before returning; an unclaimed
// token leaves the cached descriptor to be silently overwritten, and
// leaked, by the next inbound connection event.
type ConnHandler func(peer netip.AddrPort, acc *Accepted)

// Listener is a listening TCP socket registered with a reactor.
type Listener struct {
	reactor api.Reactor
	fd      int // listening descriptor
	fdc     int // cached accepted-but-unclaimed client descriptor
	connh   ConnHandler

	registered bool
	closed     bool
}

// NewListener creates, configures and binds the listening socket without
// calling listen, so the application can inspect a bound ephemeral port via
// Addr first. local may be the zero AddrPort for a full wildcard.
func NewListener(r api.Reactor, local netip.AddrPort, connh ConnHandler) (*Listener, error) {
	if r == nil || connh == nil {
		return nil, api.ErrInvalidArgument
	}

	l := &Listener{reactor: r, fd: -1, fdc: -1, connh: connh}

	if local.IsValid() {
		sa, family, err := sockaddrFrom(local)
		if err != nil {
			return nil, err
		}
		fd, err := newStreamSocket(family)
		if err != nil {
			return nil, err
		}
		setReuseAddr(fd)
		disableLinger(fd)
		if err := unix.Bind(fd, sa); err != nil {
			_ = unix.Close(fd)
			log.Warnf("sock bind %s: %v", local, err)
			return nil, fmt.Errorf("bind: %w", err)
		}
		l.fd = fd
		return l, nil
	}

	// Wildcard: try the families in order and keep the last error.
	var lastErr error = api.ErrAddrUnavailable
	for _, family := range []int{unix.AF_INET6, unix.AF_INET} {
		fd, err := newStreamSocket(family)
		if err != nil {
			lastErr = err
			continue
		}
		setReuseAddr(fd)
		disableLinger(fd)

		var sa unix.Sockaddr
		if family == unix.AF_INET6 {
			sa = &unix.SockaddrInet6{}
		} else {
			sa = &unix.SockaddrInet4{}
		}
		if err := unix.Bind(fd, sa); err != nil {
			lastErr = err
			_ = unix.Close(fd)
			continue
		}

		l.fd = fd
		return l, nil
	}
	return nil, lastErr
}

// Listen transitions the descriptor into the OS listen queue and registers
// read interest with the reactor.
func (l *Listener) Listen(backlog int) error {
	if l.fd < 0 {
		return api.ErrBadDescriptor
	}
	if backlog < 0 {
		return api.ErrInvalidArgument
	}
	if err := unix.Listen(l.fd, backlog); err != nil {
		log.Warnf("sock listen: %v", err)
		return fmt.Errorf("listen: %w", err)
	}
	if l.registered {
		return nil
	}
	if err := l.reactor.Register(l.fd, api.Readable, l.onReadable); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	l.registered = true
	return nil
}

// Listen binds local and starts listening with the default backlog.
func Listen(r api.Reactor, local netip.AddrPort, connh ConnHandler) (*Listener, error) {
	l, err := NewListener(r, local, connh)
	if err != nil {
		return nil, err
	}
	if err := l.Listen(DefaultBacklog); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// onReadable accepts a single pending client and invokes the connection
// handler with a one-shot claim/reject token.
func (l *Listener) onReadable(api.Interest) {
	if l.fd < 0 {
		return
	}

	fd, sa, err := acceptConn(l.fd)
	if err != nil {
		if !isWouldBlock(err) {
			log.Warnf("conn handler: accept: %v", err)
		}
		return
	}
	disableLinger(fd)

	l.fdc = fd
	l.connh(addrPortFrom(sa), &Accepted{ln: l})
}

// Addr returns the OS-reported bound local address, useful after binding
// port zero.
func (l *Listener) Addr() (netip.AddrPort, error) {
	if l.fd < 0 {
		return netip.AddrPort{}, api.ErrBadDescriptor
	}
	sa, err := unix.Getsockname(l.fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	return addrPortFrom(sa), nil
}

// Close deregisters and closes the listening descriptor and closes any
// unclaimed cached client descriptor. Close is idempotent.
func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	if l.fd >= 0 {
		if l.registered {
			_ = l.reactor.Deregister(l.fd)
			l.registered = false
		}
		_ = unix.Close(l.fd)
		l.fd = -1
	}
	if l.fdc >= 0 {
		_ = unix.Close(l.fdc)
		l.fdc = -1
	}
	return nil
}

// Accepted is the one-shot decision point for an inbound connection: claim
// it into a Conn or reject it. Using a consumed token fails instead of
// double-closing or double-owning the descriptor.
type Accepted struct {
	ln   *Listener
	done bool
}

// Claim transfers ownership of the cached descriptor to a new Conn
// registered for read/write/exception readiness.
func (a *Accepted) Claim(h Handlers) (*Conn, error) {
	if a.done || a.ln.fdc < 0 {
		return nil, api.ErrBadDescriptor
	}
	a.done = true

	fd := a.ln.fdc
	a.ln.fdc = -1

	c, err := claim(a.ln.reactor, fd, h)
	if err != nil {
		log.Warnf("accept: %v", err)
		return nil, err
	}
	return c, nil
}

// Reject closes the cached descriptor. Rejecting a consumed token is a
// no-op.
func (a *Accepted) Reject() {
	if a.done || a.ln.fdc < 0 {
		a.done = true
		return
	}
	a.done = true

	_ = unix.Close(a.ln.fdc)
	a.ln.fdc = -1
}
