// Package report renders measurement results for humans and serves the
// latest aggregated result over HTTP. The measurement core does not depend
// on any of this formatting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/m-lab/udpt-server/udpt/model"
)

// WriteInterval writes a one-line rendering of an interval result.
func WriteInterval(w io.Writer, iv model.IntervalResult) {
	fmt.Fprintf(w, "[%7.2fs] recv %6d pkts  lost %5d  ooo %4d  jitter %7.3f ms  %8.3f Mbps\n",
		iv.Elapsed.Seconds(), iv.Received, iv.Lost, iv.OutOfOrder, iv.JitterMs, iv.Bitrate()/1e6)
}

// WriteFinal writes the aggregated report for a finished test.
func WriteFinal(w io.Writer, tr model.TestResult) {
	lossPct := 0.0
	if total := tr.TotalPackets + tr.TotalLost; total > 0 {
		lossPct = float64(tr.TotalLost) / float64(total) * 100.0
	}
	fmt.Fprintf(w, "Test %s\n", tr.UUID)
	fmt.Fprintf(w, "  Duration:      %.2fs\n", tr.TotalTime)
	fmt.Fprintf(w, "  Bytes:         %d\n", tr.TotalBytes)
	fmt.Fprintf(w, "  Received:      %d pkts\n", tr.TotalPackets)
	fmt.Fprintf(w, "  Lost:          %d pkts (%.2f%%)\n", tr.TotalLost, lossPct)
	fmt.Fprintf(w, "  Out-of-order:  %d\n", tr.TotalOutOfOrder)
	fmt.Fprintf(w, "  Bitrate:       mean %.3f Mbps, median %.3f Mbps\n", tr.MeanBitrate/1e6, tr.MedianBitrate/1e6)
	fmt.Fprintf(w, "  Jitter:        mean %.3f ms, median %.3f ms\n", tr.MeanJitter, tr.MedianJitter)
}

// ClientProgress writes a one-line transmission progress report to the
// standard output.
func ClientProgress(elapsed time.Duration, payloadSize int, packets uint64) {
	secs := elapsed.Seconds()
	mbps := 0.0
	if secs > 0 {
		mbps = float64(packets) * float64(payloadSize) * 8 / secs / 1e6
	}
	fmt.Fprintf(os.Stdout, "[%7.2fs] sent %6d pkts  %8.3f Mbps\n", secs, packets, mbps)
}

// Handler serves the most recent TestResult as JSON. It is safe for
// concurrent use: the receiver updates it while HTTP clients read it.
type Handler struct {
	mu     sync.Mutex
	latest *model.TestResult
}

// Update stores tr as the latest result.
func (h *Handler) Update(tr model.TestResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &tr
}

// ServeHTTP implements http.Handler. It responds 404 until a first test
// has finished.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	latest := h.latest
	h.mu.Unlock()
	if latest == nil {
		http.Error(w, "no test results yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
