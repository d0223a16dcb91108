package control_test

import (
	"errors"
	"testing"

	"github.com/m-lab/udpt-server/udpt/control"
)

func TestStringConversions(t *testing.T) {
	for _, subtest := range []struct {
		cmd control.Command
		str string
	}{
		{control.Start, "Start"},
		{control.Stop, "Stop"},
		{control.Command(99), "UnknownCommand"},
	} {
		if subtest.cmd.String() != subtest.str {
			t.Errorf("%q != %q", subtest.cmd.String(), subtest.str)
		}
	}
	for _, subtest := range []struct {
		state control.State
		str   string
	}{
		{control.Idle, "Idle"},
		{control.AwaitingStart, "AwaitingStart"},
		{control.Running, "Running"},
		{control.Finished, "Finished"},
		{control.State(99), "UnknownState"},
	} {
		if subtest.state.String() != subtest.str {
			t.Errorf("%q != %q", subtest.state.String(), subtest.str)
		}
	}
}

func TestWaitStart(t *testing.T) {
	ch := make(chan control.Command, 1)
	ch <- control.Start
	if err := control.WaitStart(ch); err != nil {
		t.Errorf("WaitStart with Start = %v, want nil", err)
	}
}

func TestWaitStartStopIsProtocolViolation(t *testing.T) {
	ch := make(chan control.Command, 1)
	ch <- control.Stop
	if err := control.WaitStart(ch); !errors.Is(err, control.ErrUnexpectedCommand) {
		t.Errorf("WaitStart with Stop = %v, want ErrUnexpectedCommand", err)
	}
}

func TestWaitStartClosedChannel(t *testing.T) {
	ch := make(chan control.Command)
	close(ch)
	if err := control.WaitStart(ch); !errors.Is(err, control.ErrChannelClosed) {
		t.Errorf("WaitStart on closed channel = %v, want ErrChannelClosed", err)
	}
}

func TestPollEmpty(t *testing.T) {
	ch := make(chan control.Command, 1)
	stop, err := control.Poll(ch)
	if stop || err != nil {
		t.Errorf("Poll on empty channel = %v, %v, want false, nil", stop, err)
	}
}

func TestPollStop(t *testing.T) {
	ch := make(chan control.Command, 1)
	ch <- control.Stop
	stop, err := control.Poll(ch)
	if !stop || err != nil {
		t.Errorf("Poll with Stop = %v, %v, want true, nil", stop, err)
	}
}

func TestPollSecondStartIsProtocolViolation(t *testing.T) {
	ch := make(chan control.Command, 1)
	ch <- control.Start
	if _, err := control.Poll(ch); !errors.Is(err, control.ErrUnexpectedCommand) {
		t.Errorf("Poll with Start = %v, want ErrUnexpectedCommand", err)
	}
}

func TestPollClosedChannel(t *testing.T) {
	ch := make(chan control.Command)
	close(ch)
	if _, err := control.Poll(ch); !errors.Is(err, control.ErrChannelClosed) {
		t.Errorf("Poll on closed channel = %v, want ErrChannelClosed", err)
	}
}
