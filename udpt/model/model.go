// Package model contains the measurement result structures. They are value
// types with no back-references, safe to share by copy, and are meant to be
// serialised as JSON for the results endpoint.
package model

import (
	"sort"
	"time"
)

// IntervalResult is an immutable snapshot of one measurement interval on
// the receiver side.
type IntervalResult struct {
	// Received is the number of length-valid packets seen in the interval,
	// duplicates included.
	Received uint64 `json:"received"`

	// Lost is the number of sequence numbers that never arrived, summed
	// over every gap observed in the interval.
	Lost uint64 `json:"lost"`

	// OutOfOrder counts packets that arrived with a sequence number lower
	// than the highest already accepted.
	OutOfOrder uint64 `json:"out_of_order"`

	// Bytes is the total datagram bytes received in the interval.
	Bytes uint64 `json:"bytes"`

	// JitterMs is the RFC 3550 smoothed jitter estimate at the end of the
	// interval, in milliseconds.
	JitterMs float64 `json:"jitter_ms"`

	// RecommendedPPS is the adaptive-rate suggestion current at the end of
	// the interval, in packets per second. Advisory only.
	RecommendedPPS float64 `json:"recommended_pps"`

	// Elapsed is the wall-clock length of the interval.
	Elapsed time.Duration `json:"elapsed"`
}

// Bitrate returns the achieved bitrate of the interval in bits per second,
// or 0 for an empty interval.
func (r IntervalResult) Bitrate() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Bytes*8) / secs
}

// TestResult is the reduction of an ordered sequence of IntervalResults
// into the final report for one test run.
type TestResult struct {
	// UUID identifies the measurement session in logs and archives.
	UUID string `json:"uuid"`

	TotalPackets    uint64  `json:"total_packets"`
	TotalLost       uint64  `json:"total_lost"`
	TotalBytes      uint64  `json:"total_bytes"`
	TotalOutOfOrder uint64  `json:"total_out_of_order"`
	TotalTime       float64 `json:"total_time"` // seconds

	MeanBitrate   float64 `json:"mean_bitrate"`   // bits/sec
	MedianBitrate float64 `json:"median_bitrate"` // bits/sec
	MeanJitter    float64 `json:"mean_jitter"`    // ms
	MedianJitter  float64 `json:"median_jitter"`  // ms
}

// FromIntervals aggregates per-interval results into a TestResult. An empty
// input yields the zero value rather than an error: a test that measured
// nothing reports zeroes.
func FromIntervals(intervals []IntervalResult) TestResult {
	result := TestResult{}
	if len(intervals) == 0 {
		return result
	}

	bitrates := make([]float64, 0, len(intervals))
	jitters := make([]float64, 0, len(intervals))
	var totalTime time.Duration
	for _, iv := range intervals {
		result.TotalPackets += iv.Received
		result.TotalLost += iv.Lost
		result.TotalBytes += iv.Bytes
		result.TotalOutOfOrder += iv.OutOfOrder
		totalTime += iv.Elapsed
		bitrates = append(bitrates, iv.Bitrate())
		jitters = append(jitters, iv.JitterMs)
	}
	result.TotalTime = totalTime.Seconds()
	result.MeanBitrate = mean(bitrates)
	result.MedianBitrate = median(bitrates)
	result.MeanJitter = mean(jitters)
	result.MedianJitter = median(jitters)
	return result
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// median sorts its argument in place.
func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sort.Float64s(v)
	mid := len(v) / 2
	if len(v)%2 == 1 {
		return v[mid]
	}
	return (v[mid-1] + v[mid]) / 2
}
