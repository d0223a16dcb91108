// Package receiver implements the measuring side of a udpt test. It
// consumes probe packets in socket-delivery order, reconstructs flow
// statistics, and snapshots them into interval results.
package receiver

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/udpt-server/logging"
	"github.com/m-lab/udpt-server/metrics"
	"github.com/m-lab/udpt-server/udpt/control"
	"github.com/m-lab/udpt-server/udpt/flow"
	"github.com/m-lab/udpt-server/udpt/model"
	"github.com/m-lab/udpt-server/udpt/sockx"
	"github.com/m-lab/udpt-server/udpt/spec"
	"github.com/m-lab/udpt-server/udpt/wire"
)

// recvBufferSize comfortably holds the largest datagram a test can send.
const recvBufferSize = 1 << 16

// Receiver measures one probe stream and collects per-interval results.
// It owns its flow state, socket, and control channel for the lifetime of
// Run; nothing else mutates them, so no locking is involved.
type Receiver struct {
	interval time.Duration
	ctrl     <-chan control.Command
	state    control.State

	// OnInterval, when non-nil, is invoked with every interval snapshot as
	// it is taken. Used for live reporting; the callback runs on the
	// receiver goroutine and should be quick.
	OnInterval func(model.IntervalResult)
}

// New returns a Receiver that snapshots an IntervalResult every interval.
// The receiver blocks on ctrl for Start before measuring and polls it
// non-blockingly between datagrams afterwards.
func New(interval time.Duration, ctrl <-chan control.Command) *Receiver {
	return &Receiver{
		interval: interval,
		ctrl:     ctrl,
		state:    control.AwaitingStart,
	}
}

// State returns the receiver's position in the session lifecycle.
func (r *Receiver) State() control.State {
	return r.state
}

// Run measures the probe stream arriving on conn until a FIN packet, a
// Stop command, or a fatal error. On every successful termination path it
// returns the accumulated interval results. The partial interval in
// progress at termination is included, so the results account for every
// accepted packet and a test shorter than one interval still yields
// exactly one result.
//
// Before the first packet the receiver waits indefinitely; only an
// external Stop releases it. Once the stream is live, spec.RecvTimeout of
// silence (the sender crashed without sending FIN) surfaces as an error
// that satisfies sockx.IsTimeout.
func (r *Receiver) Run(conn sockx.Conn) ([]model.IntervalResult, error) {
	results, err := r.run(conn)
	r.state = control.Finished
	if err != nil {
		metrics.TestCount.WithLabelValues("receiver", "error").Inc()
		return nil, err
	}
	metrics.TestCount.WithLabelValues("receiver", "ok").Inc()
	return results, nil
}

func (r *Receiver) run(conn sockx.Conn) ([]model.IntervalResult, error) {
	if err := control.WaitStart(r.ctrl); err != nil {
		return nil, err
	}
	r.state = control.Running
	logging.Logger.Debug("receiver measuring")

	state := flow.NewState()
	results := make([]model.IntervalResult, 0, 100)
	buf := make([]byte, recvBufferSize)

	sessionStart := time.Now()
	intervalStart := sessionStart
	rateStart := sessionStart

	for {
		stop, err := control.Poll(r.ctrl)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}

		n, err := conn.Recv(buf)
		if err != nil {
			return nil, fmt.Errorf("receive failed: %w", err)
		}
		if n < spec.HeaderSize {
			metrics.ShortDatagrams.Inc()
			continue
		}

		h := wire.Decode(buf[:n])
		if _, seen := state.LastSeq(); !seen {
			// The stream is live. From here on a silent socket means the
			// sender died without FIN, so bound further receives.
			conn.SetRecvTimeout(spec.RecvTimeout)
		}
		state.ProcessPacket(n, h, time.Since(sessionStart))
		metrics.PacketsReceived.Inc()

		if window := time.Since(rateStart); window >= spec.RateCalcInterval {
			state.RecommendRate(window)
			rateStart = time.Now()
		}

		if h.Flags == spec.FlagFin {
			logging.Logger.WithFields(log.Fields{"seq": h.Seq}).Debug("received FIN")
			break
		}

		if elapsed := time.Since(intervalStart); elapsed >= r.interval {
			r.record(state.IntervalSnapshot(elapsed), &results)
			intervalStart = time.Now()
		}
	}

	// The FIN and any packets accepted after the last boundary are still
	// in the counters. Flush the partial interval so the aggregate
	// accounts for every packet; a test shorter than one interval yields
	// its single result here too.
	if iv := state.IntervalSnapshot(time.Since(intervalStart)); iv.Received > 0 || len(results) == 0 {
		r.record(iv, &results)
	}
	return results, nil
}

func (r *Receiver) record(iv model.IntervalResult, results *[]model.IntervalResult) {
	metrics.PacketsLost.Add(float64(iv.Lost))
	*results = append(*results, iv)
	if r.OnInterval != nil {
		r.OnInterval(iv)
	}
}
