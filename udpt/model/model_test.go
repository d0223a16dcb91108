package model_test

import (
	"testing"
	"time"

	"github.com/m-lab/udpt-server/udpt/model"
)

func interval(received, lost uint64, bytes uint64, elapsed time.Duration, jitter float64, ooo uint64) model.IntervalResult {
	return model.IntervalResult{
		Received:   received,
		Lost:       lost,
		Bytes:      bytes,
		Elapsed:    elapsed,
		JitterMs:   jitter,
		OutOfOrder: ooo,
	}
}

func TestFromIntervalsEmpty(t *testing.T) {
	got := model.FromIntervals(nil)
	if got != (model.TestResult{}) {
		t.Errorf("FromIntervals(nil) = %+v, want zero value", got)
	}
}

func TestFromIntervalsSingle(t *testing.T) {
	iv := interval(100, 2, 8000, time.Second, 1.5, 1)
	got := model.FromIntervals([]model.IntervalResult{iv})
	if got.TotalPackets != 100 || got.TotalLost != 2 || got.TotalBytes != 8000 || got.TotalOutOfOrder != 1 {
		t.Errorf("totals wrong: %+v", got)
	}
	// For a single interval, mean == median == that interval's own values.
	if got.MeanBitrate != 64000 || got.MedianBitrate != 64000 {
		t.Errorf("bitrate mean/median = %v/%v, want 64000/64000", got.MeanBitrate, got.MedianBitrate)
	}
	if got.MeanJitter != 1.5 || got.MedianJitter != 1.5 {
		t.Errorf("jitter mean/median = %v/%v, want 1.5/1.5", got.MeanJitter, got.MedianJitter)
	}
	if got.TotalTime != 1.0 {
		t.Errorf("TotalTime = %v, want 1.0", got.TotalTime)
	}
}

func TestFromIntervalsMeanAndMedian(t *testing.T) {
	// Bitrates: 64000, 128000, 192000, 256000 -> mean == median == 160000.
	intervals := []model.IntervalResult{
		interval(100, 0, 8000, time.Second, 1.0, 0),
		interval(100, 0, 16000, time.Second, 2.0, 1),
		interval(100, 0, 24000, time.Second, 3.0, 1),
		interval(100, 0, 32000, time.Second, 4.0, 1),
	}
	got := model.FromIntervals(intervals)
	if got.TotalPackets != 400 || got.TotalBytes != 80000 || got.TotalOutOfOrder != 3 {
		t.Errorf("totals wrong: %+v", got)
	}
	if got.MeanBitrate != 160000 || got.MedianBitrate != 160000 {
		t.Errorf("bitrate mean/median = %v/%v, want 160000/160000", got.MeanBitrate, got.MedianBitrate)
	}
	if got.MeanJitter != 2.5 || got.MedianJitter != 2.5 {
		t.Errorf("jitter mean/median = %v/%v, want 2.5/2.5", got.MeanJitter, got.MedianJitter)
	}
}

func TestFromIntervalsOddCountMedian(t *testing.T) {
	intervals := []model.IntervalResult{
		interval(1, 0, 1000, time.Second, 5.0, 0),
		interval(1, 0, 2000, time.Second, 1.0, 0),
		interval(1, 0, 9000, time.Second, 3.0, 0),
	}
	got := model.FromIntervals(intervals)
	if got.MedianBitrate != 16000 {
		t.Errorf("MedianBitrate = %v, want 16000", got.MedianBitrate)
	}
	if got.MedianJitter != 3.0 {
		t.Errorf("MedianJitter = %v, want 3.0", got.MedianJitter)
	}
}

func TestBitrateZeroElapsed(t *testing.T) {
	iv := interval(1, 0, 1000, 0, 0, 0)
	if got := iv.Bitrate(); got != 0 {
		t.Errorf("Bitrate with zero elapsed = %v, want 0", got)
	}
}
