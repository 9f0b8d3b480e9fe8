// File: transport/tcp/addr.go
// Author: momentics <momentics@gmail.com>
//
// Conversions between netip.AddrPort and the raw socket address forms used
// by the syscall layer. Addresses are numeric only; name resolution is the
// caller's concern.

package tcp

import (
	"net"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-tcp/api"
)

// sockaddrFrom converts ap into a unix.Sockaddr plus the matching address
// family. IPv4-mapped IPv6 addresses are unmapped to AF_INET.
func sockaddrFrom(ap netip.AddrPort) (unix.Sockaddr, int, error) {
	if !ap.IsValid() {
		return nil, 0, api.ErrAddrUnavailable
	}
	addr := ap.Addr()
	if addr.Is4() || addr.Is4In6() {
		sa := &unix.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = addr.Unmap().As4()
		return sa, unix.AF_INET, nil
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = addr.As16()
	if zone := addr.Zone(); zone != "" {
		if ifi, err := net.InterfaceByName(zone); err == nil {
			sa.ZoneId = uint32(ifi.Index)
		}
	}
	return sa, unix.AF_INET6, nil
}

// addrPortFrom converts an OS-reported socket address back to netip form.
// Returns the zero AddrPort for non-IP address families.
func addrPortFrom(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	}
	return netip.AddrPort{}
}
