// Package sender implements the transmitting side of a udpt test: a paced
// stream of sequence-numbered probe packets followed by a single FIN.
package sender

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/udpt-server/logging"
	"github.com/m-lab/udpt-server/metrics"
	"github.com/m-lab/udpt-server/udpt/control"
	"github.com/m-lab/udpt-server/udpt/pacer"
	"github.com/m-lab/udpt-server/udpt/payload"
	"github.com/m-lab/udpt-server/udpt/report"
	"github.com/m-lab/udpt-server/udpt/sockx"
	"github.com/m-lab/udpt-server/udpt/spec"
	"github.com/m-lab/udpt-server/udpt/wire"
)

// Sender transmits probe packets at a target bitrate for a fixed duration.
// It owns its socket and control channel for the lifetime of Run and must
// not be shared between goroutines.
type Sender struct {
	bitrateBPS  float64
	payloadSize int
	duration    time.Duration
	ctrl        <-chan control.Command
	state       control.State

	// ReportInterval, when positive, is how often transmission progress is
	// logged. It does not affect the data stream.
	ReportInterval time.Duration
}

// New returns a Sender that, once started, sends payloadSize-byte packets
// (header included) at bitrateBPS for the given duration. The sender blocks
// on ctrl for Start before any packet is sent and polls it non-blockingly
// afterwards.
func New(bitrateBPS float64, payloadSize int, duration time.Duration, ctrl <-chan control.Command) *Sender {
	if payloadSize < spec.MinPayloadSize {
		payloadSize = spec.MinPayloadSize
	}
	return &Sender{
		bitrateBPS:  bitrateBPS,
		payloadSize: payloadSize,
		duration:    duration,
		ctrl:        ctrl,
		state:       control.AwaitingStart,
	}
}

// State returns the sender's position in the session lifecycle.
func (s *Sender) State() control.State {
	return s.state
}

// Run transmits the probe stream on conn and returns the number of data
// packets sent. Exactly one FIN packet follows the data stream; its
// sequence number equals the returned count. A zero-duration test sends
// only the FIN. Run terminates early, still through the FIN path, when
// Stop arrives on the control channel.
//
// Every returned error is fatal: send failures, random-source failures,
// protocol violations (Stop before Start, second Start), and control
// channel disconnection are not retried.
func (s *Sender) Run(conn sockx.Conn) (uint64, error) {
	sent, err := s.run(conn)
	if err != nil {
		s.state = control.Finished
		metrics.TestCount.WithLabelValues("sender", "error").Inc()
		return sent, err
	}
	metrics.TestCount.WithLabelValues("sender", "ok").Inc()
	return sent, nil
}

func (s *Sender) run(conn sockx.Conn) (uint64, error) {
	interval := pacer.IntervalPerPacket(s.payloadSize, s.bitrateBPS)
	filler := payload.NewFiller()
	buf := make([]byte, s.payloadSize)

	if err := control.WaitStart(s.ctrl); err != nil {
		return 0, err
	}
	s.state = control.Running

	var seq uint64
	start := time.Now()
	p := pacer.New(start, interval)
	lastReport := start

	for time.Since(start) < s.duration {
		stop, err := control.Poll(s.ctrl)
		if err != nil {
			return seq, err
		}
		if stop {
			break
		}

		if err := filler.Fill(buf); err != nil {
			return seq, fmt.Errorf("cannot fill payload: %w", err)
		}
		sec, usec := wire.NowMicros()
		h := wire.Header{Seq: seq, Sec: sec, Usec: usec, Flags: spec.FlagData}
		h.Encode(buf)
		if _, err := conn.Send(buf); err != nil {
			return seq, fmt.Errorf("send failed: %w", err)
		}
		metrics.PacketsSent.Inc()
		seq++
		p.WaitUntil(seq)

		if s.ReportInterval > 0 && time.Since(lastReport) >= s.ReportInterval {
			report.ClientProgress(time.Since(start), s.payloadSize, seq)
			lastReport = time.Now()
		}
	}

	sec, usec := wire.NowMicros()
	fin := wire.Header{Seq: seq, Sec: sec, Usec: usec, Flags: spec.FlagFin}
	fin.Encode(buf)
	if _, err := conn.Send(buf); err != nil {
		return seq, fmt.Errorf("send failed: %w", err)
	}
	metrics.PacketsSent.Inc()
	s.state = control.Finished
	logging.Logger.WithFields(log.Fields{
		"packets": seq,
		"elapsed": time.Since(start).String(),
	}).Info("sender done")
	return seq, nil
}
