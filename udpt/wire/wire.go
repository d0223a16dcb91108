// Package wire implements the fixed binary header carried at the start of
// every probe packet. The layout is big-endian:
//
//	offset 0  : seq   uint64
//	offset 8  : sec   uint64
//	offset 16 : usec  uint32
//	offset 20 : flags uint32
//
// Everything after the header is filler payload.
package wire

import (
	"encoding/binary"
	"time"

	"github.com/m-lab/udpt-server/udpt/spec"
)

// Header is the decoded form of the wire header.
type Header struct {
	// Seq is the send-order sequence number, starting at 0.
	Seq uint64

	// Sec and Usec are the sender's wall-clock send timestamp, split into
	// whole seconds since the Unix epoch and the microsecond remainder
	// (0..999999). They feed the jitter estimate only and never ordering:
	// sender and receiver clocks need not be synchronized because jitter
	// is computed from transit-time differences.
	Sec  uint64
	Usec uint32

	// Flags is spec.FlagData or spec.FlagFin.
	Flags uint32
}

// Encode writes h into the first spec.HeaderSize bytes of buf.
//
// Encoding into a buffer that cannot hold a header is a caller contract
// violation: Encode panics rather than returning an error, because the
// sender sizes its packet buffer once at construction.
func (h *Header) Encode(buf []byte) {
	if len(buf) < spec.HeaderSize {
		panic("wire: buffer smaller than header")
	}
	binary.BigEndian.PutUint64(buf[0:8], h.Seq)
	binary.BigEndian.PutUint64(buf[8:16], h.Sec)
	binary.BigEndian.PutUint32(buf[16:20], h.Usec)
	binary.BigEndian.PutUint32(buf[20:24], h.Flags)
}

// Decode reads a Header from the first spec.HeaderSize bytes of buf. The
// caller must have already rejected datagrams shorter than spec.HeaderSize;
// Decode panics on shorter input.
func Decode(buf []byte) Header {
	if len(buf) < spec.HeaderSize {
		panic("wire: buffer smaller than header")
	}
	return Header{
		Seq:   binary.BigEndian.Uint64(buf[0:8]),
		Sec:   binary.BigEndian.Uint64(buf[8:16]),
		Usec:  binary.BigEndian.Uint32(buf[16:20]),
		Flags: binary.BigEndian.Uint32(buf[20:24]),
	}
}

// NowMicros returns the current wall-clock time split into whole seconds
// and the microsecond remainder, as carried in the header.
func NowMicros() (sec uint64, usec uint32) {
	now := time.Now()
	return uint64(now.Unix()), uint32(now.Nanosecond() / 1000)
}
