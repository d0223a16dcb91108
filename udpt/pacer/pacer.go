// Package pacer converts a target bitrate into per-packet send deadlines
// and waits for them with sub-millisecond accuracy.
package pacer

import (
	"runtime"
	"time"
)

// coarseThreshold is the remaining time above which the pacer uses a
// timer-based sleep. Below it, it spins, because timer wake-up latency on a
// shared host is of the same order as the remaining wait.
const coarseThreshold = 200 * time.Microsecond

// oversleepMargin is subtracted from coarse sleeps so that wake-up latency
// lands before the deadline instead of after it.
const oversleepMargin = 100 * time.Microsecond

// IntervalPerPacket returns the ideal spacing between consecutive packets
// of payloadSize bytes (header included) at the target bitrate in bits per
// second. The rate is floored at one packet per second so that a near-zero
// bitrate never produces an unbounded interval.
func IntervalPerPacket(payloadSize int, bitrateBPS float64) time.Duration {
	bitsPerPacket := float64(payloadSize * 8)
	packetsPerSecond := bitrateBPS / bitsPerPacket
	if packetsPerSecond < 1.0 {
		packetsPerSecond = 1.0
	}
	return time.Duration(float64(time.Second) / packetsPerSecond)
}

// Pacer schedules packet sends against a fixed session start time, so that
// per-packet timing errors do not accumulate over the run.
type Pacer struct {
	start    time.Time
	interval time.Duration
}

// New returns a Pacer whose packet deadlines are start + seq*interval.
func New(start time.Time, interval time.Duration) *Pacer {
	return &Pacer{start: start, interval: interval}
}

// Deadline returns the absolute send deadline for the packet with the given
// zero-indexed sequence number.
func (p *Pacer) Deadline(seq uint64) time.Time {
	return p.start.Add(time.Duration(float64(seq) * float64(p.interval)))
}

// WaitUntil blocks until the deadline for seq has passed. A deadline already
// in the past returns immediately. The wait is hybrid: a coarse sleep while
// far from the deadline, then a yield loop for the final approach.
//
// WaitUntil consumes wall-clock time and nothing else; it has no failure
// mode and is safe to call from any goroutine.
func (p *Pacer) WaitUntil(seq uint64) {
	deadline := p.Deadline(seq)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining > coarseThreshold {
			time.Sleep(remaining - oversleepMargin)
		} else {
			runtime.Gosched()
		}
	}
}
