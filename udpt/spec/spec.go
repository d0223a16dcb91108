// Package spec contains constants shared by the udpt client and server.
package spec

import "time"

// HeaderSize is the size in bytes of the encoded packet header
// (seq + sec + usec + flags). Datagrams shorter than this are not
// valid probe packets and are discarded by the receiver.
const HeaderSize = 8 + 8 + 4 + 4

// FlagData marks an ordinary data packet.
const FlagData = uint32(0)

// FlagFin marks the last packet of a test. Its sequence number equals
// the number of data packets sent before it.
const FlagFin = uint32(1)

// MinPayloadSize is the smallest configurable packet size. A packet must
// at least carry its own header.
const MinPayloadSize = HeaderSize

// DefaultPayloadSize is the per-packet size used when the client does not
// specify one.
const DefaultPayloadSize = 1200

// RateCalcInterval is how often the receiver re-evaluates the recommended
// packet rate, independent of interval-result boundaries.
const RateCalcInterval = 200 * time.Millisecond

// AcceptPercent is the integer received-percentage below which the
// recommended rate backs off by 5%.
const AcceptPercent = 99

// AcceptFraction is the threshold, in hundredths of a percent, that the
// fractional part of the received percentage is compared against when the
// integer part is acceptable. At or above it the recommendation nudges up
// by 5 pps; below it, down by 10 pps.
const AcceptFraction = 98

// RecvTimeout bounds a single blocking receive so a sender that dies
// without sending FIN cannot hold the receiver forever.
const RecvTimeout = 2 * time.Second
