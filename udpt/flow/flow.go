// Package flow reconstructs per-flow statistics from probe packets in
// arrival order: loss, out-of-order delivery, duplicates, RFC 3550 jitter,
// and an advisory packet-rate recommendation.
package flow

import (
	"time"

	"github.com/m-lab/udpt-server/udpt/model"
	"github.com/m-lab/udpt-server/udpt/spec"
	"github.com/m-lab/udpt-server/udpt/wire"
)

// counters accumulate between interval snapshots.
type counters struct {
	received   uint64
	lost       uint64
	outOfOrder uint64
	bytes      uint64
	jitterMs   float64
}

// State is the receiver-side record for one measured flow. It is owned by a
// single receiver goroutine and is not safe for concurrent use; no locking
// is needed because nothing else mutates it.
type State struct {
	lastSeq         uint64
	haveSeq         bool
	prevTransit     float64
	havePrevTransit bool

	interval counters

	// The rate-recommendation window has its own received/lost counters,
	// reset on every evaluation independently of interval snapshots.
	windowReceived uint64
	windowLost     uint64
	recommendedPPS float64
}

// NewState returns the state for a fresh flow with no packets seen.
func NewState() *State {
	return &State{}
}

// LastSeq returns the highest accepted sequence number and whether any
// packet has been accepted yet.
func (s *State) LastSeq() (uint64, bool) {
	return s.lastSeq, s.haveSeq
}

// RecommendedPPS returns the last computed rate recommendation in packets
// per second.
func (s *State) RecommendedPPS() float64 {
	return s.recommendedPPS
}

// ProcessPacket folds one length-valid packet into the flow state.
// packetLen is the full datagram length and sinceStart is the arrival time
// relative to the start of the receiver session.
//
// Classification against the highest accepted sequence number:
//
//	first packet     accept, no loss or reordering recorded
//	seq == last      duplicate; counted as received only
//	seq == last+1    in-order advance
//	seq >  last+1    gap; every skipped sequence number counts as lost
//	seq <  last      out of order; the high-water mark never regresses
func (s *State) ProcessPacket(packetLen int, h wire.Header, sinceStart time.Duration) {
	s.interval.received++
	s.interval.bytes += uint64(packetLen)
	s.windowReceived++

	switch {
	case !s.haveSeq:
		s.lastSeq = h.Seq
		s.haveSeq = true
	case h.Seq == s.lastSeq:
		// Duplicate. Neither loss nor reordering.
	case h.Seq == s.lastSeq+1:
		s.lastSeq = h.Seq
	case h.Seq > s.lastSeq+1:
		gap := h.Seq - (s.lastSeq + 1)
		s.interval.lost += gap
		s.windowLost += gap
		s.lastSeq = h.Seq
	default:
		s.interval.outOfOrder++
	}

	// Jitter per RFC 3550 section 6.4.1. The send timestamp uses the
	// sender's clock and the arrival time the receiver's, so the absolute
	// transit value is meaningless, but jitter only depends on differences
	// between consecutive transits. No clock synchronization required.
	sendMs := float64(h.Sec)*1000.0 + float64(h.Usec)/1000.0
	arrivalMs := sinceStart.Seconds() * 1000.0
	transit := arrivalMs - sendMs
	if s.havePrevTransit {
		d := transit - s.prevTransit
		if d < 0 {
			d = -d
		}
		s.interval.jitterMs += (d - s.interval.jitterMs) / 16.0
	}
	s.prevTransit = transit
	s.havePrevTransit = true
}

// RecommendRate re-evaluates the advisory packet rate from the packets seen
// since the previous evaluation, over a measurement window of the given
// length, then resets the window counters.
//
// With no loss the recommendation holds at the achieved rate. With loss the
// received percentage decides: an integer part below spec.AcceptPercent
// backs off by 5%; otherwise a fractional part (in hundredths) at or above
// spec.AcceptFraction nudges up by 5 pps and below it backs down by 10 pps.
// The result is clamped to be non-negative.
func (s *State) RecommendRate(window time.Duration) {
	if s.windowReceived == 0 {
		s.recommendedPPS = 0
		s.windowLost = 0
		return
	}
	secs := window.Seconds()
	if secs <= 0 {
		return
	}

	received, lost := s.windowReceived, s.windowLost
	s.windowReceived, s.windowLost = 0, 0

	actualPPS := float64(received) / secs
	if lost == 0 {
		s.recommendedPPS = actualPPS
		return
	}
	if lost >= received {
		// The ratio below would underflow, and a window this bad is a
		// hard backoff regardless.
		s.recommendedPPS = actualPPS * 0.95
		return
	}

	receivedRatio := float64(received-lost) / float64(received) * 100.0
	intPart := uint64(receivedRatio)
	fracPart := uint64(receivedRatio*10000.0) % 100

	var recommended float64
	switch {
	case intPart < spec.AcceptPercent:
		recommended = actualPPS * 0.95
	case fracPart >= spec.AcceptFraction:
		recommended = actualPPS + 5.0
	default:
		recommended = actualPPS - 10.0
	}
	if recommended < 0 {
		recommended = 0
	}
	s.recommendedPPS = recommended
}

// IntervalSnapshot returns the interval counters as an immutable result
// tagged with the interval's elapsed time, and resets them for the next
// interval. The rate-recommendation window is unaffected.
func (s *State) IntervalSnapshot(elapsed time.Duration) model.IntervalResult {
	result := model.IntervalResult{
		Received:       s.interval.received,
		Lost:           s.interval.lost,
		OutOfOrder:     s.interval.outOfOrder,
		Bytes:          s.interval.bytes,
		JitterMs:       s.interval.jitterMs,
		RecommendedPPS: s.recommendedPPS,
		Elapsed:        elapsed,
	}
	s.interval = counters{}
	return result
}
