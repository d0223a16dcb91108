// Package control defines the out-of-band command channel that coordinates
// sender and receiver lifecycles, and the session states both actors move
// through. At most two commands are ever sent on a channel: one Start and
// possibly one Stop.
package control

import "errors"

// Command is a control-channel command.
type Command int

const (
	// Start tells an actor in AwaitingStart to begin its test.
	Start Command = iota + 1
	// Stop tells a Running actor to terminate cleanly.
	Stop
)

func (c Command) String() string {
	switch c {
	case Start:
		return "Start"
	case Stop:
		return "Stop"
	default:
		return "UnknownCommand"
	}
}

// State is an actor's position in the session lifecycle.
type State int

const (
	// Idle is the zero value, before the actor is constructed.
	Idle State = iota
	// AwaitingStart means the actor is blocked on the control channel.
	AwaitingStart
	// Running means the actor is sending or measuring.
	Running
	// Finished means the actor terminated, successfully or not.
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingStart:
		return "AwaitingStart"
	case Running:
		return "Running"
	case Finished:
		return "Finished"
	default:
		return "UnknownState"
	}
}

// ErrUnexpectedCommand reports a misuse of the control API: Stop before the
// test started, or a second Start while it is running.
var ErrUnexpectedCommand = errors.New("unexpected control command")

// ErrChannelClosed reports that the controlling side went away. It is
// distinct from ErrUnexpectedCommand: the environment failed, not the
// caller's protocol.
var ErrChannelClosed = errors.New("control channel closed")

// WaitStart blocks until the Start command arrives. It implements the
// AwaitingStart -> Running transition: Stop at this point is a protocol
// violation, because a test cannot be stopped before it starts.
func WaitStart(ch <-chan Command) error {
	cmd, ok := <-ch
	if !ok {
		return ErrChannelClosed
	}
	if cmd != Start {
		return ErrUnexpectedCommand
	}
	return nil
}

// Poll checks the channel without blocking, so a Running actor can notice
// Stop between datagrams without slowing the data path. It reports whether
// the actor should stop. A second Start is a protocol violation and a
// closed channel is fatal.
func Poll(ch <-chan Command) (stop bool, err error) {
	select {
	case cmd, ok := <-ch:
		if !ok {
			return false, ErrChannelClosed
		}
		if cmd != Stop {
			return false, ErrUnexpectedCommand
		}
		return true, nil
	default:
		return false, nil
	}
}
