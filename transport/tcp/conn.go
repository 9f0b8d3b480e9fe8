// File: transport/tcp/conn.go
// Author: momentics <momentics@gmail.com>
//
// Conn is the central connection state machine. It owns exactly one socket
// descriptor, a send queue and an ordered helper chain, and drives the
// established/receive/close callbacks toward the application from reactor
// readiness events.

package tcp

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

// DefaultReceiveChunk is the default per-event receive buffer size.
const DefaultReceiveChunk = 8192

// Handlers holds the optional application callback slots of a connection.
type Handlers struct {
	// Establish fires once the connection is deemed ready for data
	// exchange, per the transport handshake or a helper protocol signal.
	Establish func()

	// Receive fires with inbound data that survived the helper chain.
	// The buffer is only valid for the duration of the call.
	Receive func(buf []byte)

	// Close fires exactly once when an asynchronously discovered error
	// (nil for orderly peer shutdown) tears the connection down. It never
	// fires for errors returned synchronously or for an explicit Close.
	Close func(err error)
}

// Conn is a non-blocking TCP connection driven by reactor callbacks.
//
// A Conn must only be touched from the reactor dispatch context once it is
// registered; reentrant use from inside its own callbacks is safe.
type Conn struct {
	reactor api.Reactor
	fd      int

	helpers []api.Helper
	sendq   sendQueue

	estabh func()
	sendh  func()
	recvh  func([]byte)
	closeh func(error)

	rxsz      int  // maximum receive chunk size
	active    bool // this side initiated the connect
	connected bool // establishment handshake completed
}

// NewConn allocates an unconnected connection for outbound use. The
// descriptor is created by Connect (or BindLocal) when the address family
// is known.
func NewConn(r api.Reactor, h Handlers) *Conn {
	return &Conn{
		reactor: r,
		fd:      -1,
		rxsz:    DefaultReceiveChunk,
		estabh:  h.Establish,
		recvh:   h.Receive,
		closeh:  h.Close,
	}
}

// Dial allocates a connection and starts a non-blocking connect to peer.
func Dial(r api.Reactor, peer netip.AddrPort, h Handlers) (*Conn, error) {
	c := NewConn(r, h)
	if err := c.Connect(peer); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// ensureSocket creates the descriptor on first use.
func (c *Conn) ensureSocket(family int) error {
	if c.fd >= 0 {
		return nil
	}
	fd, err := newStreamSocket(family)
	if err != nil {
		return err
	}
	disableLinger(fd)
	c.fd = fd
	return nil
}

// BindLocal binds the connecting descriptor to a local address before
// Connect, enabling address reuse first.
func (c *Conn) BindLocal(local netip.AddrPort) error {
	sa, family, err := sockaddrFrom(local)
	if err != nil {
		return err
	}
	if err := c.ensureSocket(family); err != nil {
		return err
	}
	setReuseAddr(c.fd)
	if err := unix.Bind(c.fd, sa); err != nil {
		log.Warnf("conn bind %s: %v", local, err)
		return fmt.Errorf("bind: %w", err)
	}
	return nil
}

// Connect starts a non-blocking connect to peer and registers for
// read/write/exception readiness. An in-progress or would-block result is
// treated as pending: the first writable notification is the establishment
// signal. Any other connect error is returned and nothing is registered.
func (c *Conn) Connect(peer netip.AddrPort) error {
	if c.reactor == nil {
		return api.ErrInvalidArgument
	}
	sa, family, err := sockaddrFrom(peer)
	if err != nil {
		return err
	}

	c.active = true

	if err := c.ensureSocket(family); err != nil {
		return err
	}

	for {
		err = unix.Connect(c.fd, sa)
		if err != unix.EINTR {
			break
		}
	}
	switch {
	case err == nil:
	case err == unix.EINPROGRESS, err == unix.EALREADY, isWouldBlock(err):
		// Pending: completion arrives as the first writable event.
	default:
		log.Warnf("connect %s: %v", peer, err)
		return err
	}

	if err := c.reactor.Register(c.fd, api.Readable|api.Writable|api.Exception, c.onReady); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// claim wraps an accepted descriptor into a passive connection and
// registers it for read/write/exception readiness immediately.
func claim(r api.Reactor, fd int, h Handlers) (*Conn, error) {
	c := NewConn(r, h)
	c.fd = fd
	if err := c.reactor.Register(fd, api.Readable|api.Writable|api.Exception, c.onReady); err != nil {
		_ = unix.Close(fd)
		c.fd = -1
		return nil, fmt.Errorf("register: %w", err)
	}
	return c, nil
}

// snapshotHelpers copies the chain so a helper callback may register or
// unregister helpers without corrupting the walk in progress.
func (c *Conn) snapshotHelpers() []api.Helper {
	if len(c.helpers) == 0 {
		return nil
	}
	return append([]api.Helper(nil), c.helpers...)
}

// RegisterHelper appends h to the tail of the helper chain and returns the
// underlying descriptor for helpers that need direct socket access.
func (c *Conn) RegisterHelper(h api.Helper) (int, error) {
	if h == nil {
		return -1, api.ErrInvalidArgument
	}
	c.helpers = append(c.helpers, h)
	return c.fd, nil
}

// UnregisterHelper removes h from the chain. Removing an unknown or
// already-removed helper is a no-op.
func (c *Conn) UnregisterHelper(h api.Helper) {
	for i, cur := range c.helpers {
		if cur == h {
			// Full slice expression keeps walk snapshots intact.
			c.helpers = append(c.helpers[:i:i], c.helpers[i+1:]...)
			return
		}
	}
}

// Send transmits p to the peer, offering it first to every helper in
// reverse registration order (helpers may rewrite *p in place, swallow the
// buffer, or abort with an error).
//
// Bytes the kernel does not accept synchronously are copied into the send
// queue and drained in FIFO order on subsequent writable events, so the
// peer always observes sends in call order with no interleaving. Hard
// errors are returned to the caller, which stays responsible for closing.
func (c *Conn) Send(p []byte) error {
	if c.fd < 0 {
		return api.ErrBadDescriptor
	}
	if len(p) == 0 {
		log.Warnf("send: empty buffer")
		return api.ErrInvalidArgument
	}

	hs := c.snapshotHelpers()
	for i := len(hs) - 1; i >= 0; i-- {
		handled, err := hs[i].HandleSend(&p)
		if handled || err != nil {
			return err
		}
	}

	// All bytes of one send must queue together once anything is queued,
	// or the peer would observe reordering.
	if !c.sendq.empty() {
		return c.enqueue(p, 0)
	}

	n, err := unix.SendmsgN(c.fd, p, nil, nil, sendFlags)
	if err != nil {
		if isWouldBlock(err) {
			return c.enqueue(p, 0)
		}
		log.Warnf("send: write: %v (fd=%d)", err, c.fd)
		return err
	}
	if n < len(p) {
		return c.enqueue(p, n)
	}
	return nil
}

// enqueue appends the unwritten remainder of p as a new queue entry,
// arming write-readiness interest when the queue was idle.
func (c *Conn) enqueue(p []byte, skip int) error {
	if c.sendq.empty() && c.sendh == nil {
		if err := c.reactor.Modify(c.fd, api.Readable|api.Writable); err != nil {
			return err
		}
	}
	c.sendq.push(p[skip:])
	return nil
}

// dequeue writes the head entry starting at its cursor. Would-block just
// defers draining to the next writable event. With an empty queue the
// send-drained handler, if any, fires instead.
func (c *Conn) dequeue() error {
	ent := c.sendq.head()
	if ent == nil {
		if c.sendh != nil {
			c.sendh()
		}
		return nil
	}

	n, err := unix.SendmsgN(c.fd, ent.remaining(), nil, nil, sendFlags)
	if err != nil {
		if isWouldBlock(err) {
			return nil
		}
		return err
	}

	ent.pos += n
	if ent.drained() {
		c.sendq.pop()
	}
	return nil
}

// SetSendHandler installs (or clears) the send-drained callback. While set,
// write interest stays armed and fn fires on every writable event with an
// empty queue. Setting it on an idle connection arms write interest
// immediately.
func (c *Conn) SetSendHandler(fn func()) error {
	c.sendh = fn

	if !c.sendq.empty() || fn == nil {
		return nil
	}
	if c.fd < 0 {
		return api.ErrBadDescriptor
	}
	return c.reactor.Modify(c.fd, api.Readable|api.Writable)
}

// onReady is the single readiness dispatch point for the connection.
func (c *Conn) onReady(ready api.Interest) {
	if c.fd < 0 {
		return
	}

	if ready.Has(api.Exception) {
		log.Debugf("recv handler: exceptional condition on fd=%d", c.fd)
	}

	// Pending socket error first: a failed non-blocking connect or a
	// transport error is reported here, not by the following syscalls.
	soerr, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		log.Warnf("recv handler: getsockopt: %v", err)
		return
	}
	if soerr != 0 {
		c.teardown(unix.Errno(soerr))
		return
	}

	if ready.Has(api.Writable) {
		if c.connected {
			if err := c.dequeue(); err != nil {
				c.teardown(err)
				return
			}

			if c.sendq.empty() && c.sendh == nil {
				// Narrow back to read interest, or a level-triggered
				// reactor would deliver writable events forever.
				if err := c.reactor.Modify(c.fd, api.Readable); err != nil {
					c.teardown(err)
					return
				}
			}

			if !ready.Has(api.Readable) {
				return
			}
			// Fall through to the read path below.
		} else {
			// First writable notification completes establishment.
			if err := c.reactor.Modify(c.fd, api.Readable); err != nil {
				log.Warnf("recv handler: modify interest: %v", err)
				c.teardown(err)
				return
			}

			for _, h := range c.snapshotHelpers() {
				handled, err := h.HandleEstablish(c.active)
				if handled || err != nil {
					if err != nil {
						c.teardown(err)
					}
					return
				}
			}

			if c.estabh != nil {
				c.estabh()
			}
			c.connected = true
			return
		}
	}

	c.read()
}

// read performs a single non-blocking receive and routes the result through
// the helper chain toward the application.
func (c *Conn) read() {
	buf := make([]byte, c.rxsz)

	n, err := unix.Read(c.fd, buf)
	if err != nil {
		// A failed individual recv attempt is transient; only send,
		// connect and establishment errors close the connection.
		if !isWouldBlock(err) {
			log.Warnf("recv handler: recv: %v", err)
		}
		return
	}
	if n == 0 {
		// Orderly peer shutdown.
		c.teardown(nil)
		return
	}

	mb := buf[:n]
	hlpEstab := false

	for _, h := range c.snapshotHelpers() {
		var handled bool
		if !hlpEstab {
			handled, err = h.HandleRecv(&mb, &hlpEstab)
		} else {
			handled, err = h.HandleEstablish(c.active)
		}
		if handled || err != nil {
			if err != nil {
				c.teardown(err)
			}
			return
		}
	}

	if !hlpEstab {
		if c.recvh != nil {
			c.recvh(mb)
		}
		return
	}

	// A helper promoted this receive into the establishment signal; the
	// remaining bytes are not application data.
	if c.estabh != nil {
		c.estabh()
	}
	c.connected = true
}

// teardown closes the connection from asynchronous readiness processing and
// delivers err (nil for orderly shutdown) to the close handler exactly
// once. The descriptor is deregistered before it is closed, so no further
// callback can ever fire for this connection.
func (c *Conn) teardown(err error) {
	c.release()

	if ch := c.closeh; ch != nil {
		c.closeh = nil
		ch(err)
	}
}

// release deregisters and closes the descriptor exactly once and frees the
// send queue and helper chain.
func (c *Conn) release() {
	if c.fd >= 0 {
		_ = c.reactor.Deregister(c.fd)
		_ = unix.Close(c.fd)
		c.fd = -1
	}
	c.sendq.reset()
	c.helpers = nil
	c.connected = false
}

// Close destroys the connection: pending queue entries and helpers are
// released and the descriptor is closed exactly once. No callback is
// invoked. Close is idempotent.
func (c *Conn) Close() error {
	c.closeh = nil
	c.release()
	return nil
}

// LocalAddr returns the OS-reported bound local address.
func (c *Conn) LocalAddr() (netip.AddrPort, error) {
	if c.fd < 0 {
		return netip.AddrPort{}, api.ErrBadDescriptor
	}
	sa, err := unix.Getsockname(c.fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	return addrPortFrom(sa), nil
}

// PeerAddr returns the OS-reported remote peer address.
func (c *Conn) PeerAddr() (netip.AddrPort, error) {
	if c.fd < 0 {
		return netip.AddrPort{}, api.ErrBadDescriptor
	}
	sa, err := unix.Getpeername(c.fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getpeername: %w", err)
	}
	return addrPortFrom(sa), nil
}

// SetReceiveChunkSize tunes the per-event receive buffer size.
func (c *Conn) SetReceiveChunkSize(n int) {
	if n > 0 {
		c.rxsz = n
	}
}

// Fd exposes the raw descriptor, or -1 after teardown.
func (c *Conn) Fd() int {
	return c.fd
}

// Connected reports whether the establishment handshake has completed.
func (c *Conn) Connected() bool {
	return c.connected
}

// PendingBytes reports the total number of queued, unwritten bytes.
func (c *Conn) PendingBytes() int {
	total := 0
	for i := 0; i < c.sendq.length(); i++ {
		e := c.sendq.q.Get(i).(*queueEntry)
		total += len(e.bb.B) - e.pos
	}
	return total
}
