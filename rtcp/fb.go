// File: rtcp/fb.go
// Author: momentics <momentics@gmail.com>
//
// RTCP feedback message FCI codec per RFC 4585: Generic NACK for transport
// layer feedback, SLI and PLI for payload-specific feedback. Stateless
// fixed-size bit packing; header parsing is the caller's concern.

// Package rtcp encodes and decodes RTCP feedback FCI entries.
package rtcp

import (
	"encoding/binary"
	"errors"
)

// Feedback message types, carried in the FMT field of the packet header.
const (
	// RTPFBGNACK is the Generic NACK transport-layer feedback format.
	RTPFBGNACK = 1

	// PSFBPLI is the Picture Loss Indication format. It carries no FCI.
	PSFBPLI = 1
	// PSFBSLI is the Slice Loss Indication format.
	PSFBSLI = 2
)

const (
	gnackSize = 4
	sliSize   = 4
)

// ErrShortPacket reports a truncated FCI section.
var ErrShortPacket = errors.New("rtcp: short packet")

// GNACK is one Generic NACK FCI entry: a packet ID plus a bitmask of the
// following sixteen lost packets.
type GNACK struct {
	PID uint16 // sequence number of the lost packet
	BLP uint16 // bitmask of following lost packets
}

// SLI is one Slice Loss Indication FCI entry, packed into 13+13+6 bits.
type SLI struct {
	First  uint16 // macroblock address of the first lost block
	Number uint16 // number of lost macroblocks
	PicID  uint8  // picture identifier
}

// AppendGNACK appends the wire form of g to b.
func AppendGNACK(b []byte, g GNACK) []byte {
	b = binary.BigEndian.AppendUint16(b, g.PID)
	return binary.BigEndian.AppendUint16(b, g.BLP)
}

// AppendSLI appends the wire form of s to b.
func AppendSLI(b []byte, s SLI) []byte {
	v := uint32(s.First&0x1fff)<<19 | uint32(s.Number&0x1fff)<<6 | uint32(s.PicID&0x3f)
	return binary.BigEndian.AppendUint32(b, v)
}

// DecodeGNACKs decodes n Generic NACK entries from the front of b.
func DecodeGNACKs(b []byte, n int) ([]GNACK, error) {
	if n < 0 || len(b)/gnackSize < n {
		return nil, ErrShortPacket
	}
	out := make([]GNACK, n)
	for i := range out {
		out[i].PID = binary.BigEndian.Uint16(b[i*gnackSize:])
		out[i].BLP = binary.BigEndian.Uint16(b[i*gnackSize+2:])
	}
	return out, nil
}

// DecodeSLIs decodes n Slice Loss Indication entries from the front of b.
func DecodeSLIs(b []byte, n int) ([]SLI, error) {
	if n < 0 || len(b)/sliSize < n {
		return nil, ErrShortPacket
	}
	out := make([]SLI, n)
	for i := range out {
		v := binary.BigEndian.Uint32(b[i*sliSize:])
		out[i].First = uint16(v >> 19 & 0x1fff)
		out[i].Number = uint16(v >> 6 & 0x1fff)
		out[i].PicID = uint8(v & 0x3f)
	}
	return out, nil
}
