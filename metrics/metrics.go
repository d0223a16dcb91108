// Package metrics defines the prometheus metrics shared by the udpt client
// and server actors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsSent counts probe packets written to the wire, FIN included.
	PacketsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "udpt_packets_sent_total",
			Help: "Number of probe packets sent, including the FIN packet.",
		})
	// PacketsReceived counts length-valid probe packets accepted by the
	// receiver.
	PacketsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "udpt_packets_received_total",
			Help: "Number of valid probe packets received.",
		})
	// PacketsLost counts sequence numbers the receiver never saw.
	PacketsLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "udpt_packets_lost_total",
			Help: "Number of probe packets detected as lost.",
		})
	// ShortDatagrams counts datagrams discarded for being shorter than a
	// header.
	ShortDatagrams = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "udpt_short_datagrams_total",
			Help: "Number of datagrams discarded because they were shorter than the probe header.",
		})
	// TestCount counts finished test runs by actor role and outcome.
	TestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "udpt_tests_total",
			Help: "Number of udpt test runs by this process.",
		},
		[]string{"role", "result"},
	)
	// TestRate is a histogram of measured mean bitrates.
	TestRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "udpt_test_rate_mbps",
			Help: "A histogram of measured test rates.",
			Buckets: []float64{
				.1, .15, .25, .4, .6,
				1, 1.5, 2.5, 4, 6,
				10, 15, 25, 40, 60,
				100, 150, 250, 400, 600,
				1000},
		})
)
