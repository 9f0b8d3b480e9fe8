// File: api/helper.go
// Author: momentics <momentics@gmail.com>
//
// Helper is the extension point protocol layers (TLS, framing, tunneling)
// plug into a TCP connection. A connection keeps an ordered chain of
// helpers and consults it on establishment, on every outbound send and on
// every inbound receive. Walk direction differs per path: send walks the
// chain in reverse registration order, establish and receive walk forward.

package api

// Helper intercepts connection events before they reach the application.
//
// Each method reports handled=true to consume the event and stop the chain
// walk, or a non-nil error to abort it; an error discovered during
// asynchronous readiness processing closes the connection. Both buffer
// methods receive a pointer so the helper may transform the payload in
// place (re-slice, grow, rewrite) for the layers beneath/above it.
type Helper interface {
	// HandleEstablish runs when the transport-level handshake completes.
	// active is true when this side initiated the connect. A helper that
	// returns handled=true owns the continuation, e.g. it drives its own
	// handshake and later signals establishment through HandleRecv.
	HandleEstablish(active bool) (handled bool, err error)

	// HandleSend runs for every outbound buffer, innermost helper first.
	HandleSend(buf *[]byte) (handled bool, err error)

	// HandleRecv runs for every inbound buffer, outermost helper first.
	// Setting *estab promotes this receive event into an establishment
	// signal: remaining bytes are not delivered as application data and
	// the connection becomes established instead.
	HandleRecv(buf *[]byte, estab *bool) (handled bool, err error)
}

// NopHelper is a neutral Helper that never handles anything. Embed it to
// implement only the callbacks a protocol layer cares about.
type NopHelper struct{}

// HandleEstablish reports the event as not handled.
func (NopHelper) HandleEstablish(bool) (bool, error) { return false, nil }

// HandleSend reports the buffer as not handled.
func (NopHelper) HandleSend(*[]byte) (bool, error) { return false, nil }

// HandleRecv reports the buffer as not handled.
func (NopHelper) HandleRecv(*[]byte, *bool) (bool, error) { return false, nil }
