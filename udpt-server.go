// udpt-server listens for UDP probe streams and measures their throughput
// and delivery quality. One stream is measured at a time; interval results
// are printed as they are taken and the final aggregate of the most recent
// test is served as JSON on the results address.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/httpx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
	"github.com/m-lab/udpt-server/logging"
	"github.com/m-lab/udpt-server/metrics"
	"github.com/m-lab/udpt-server/udpt/control"
	"github.com/m-lab/udpt-server/udpt/model"
	"github.com/m-lab/udpt-server/udpt/receiver"
	"github.com/m-lab/udpt-server/udpt/report"
	"github.com/m-lab/udpt-server/udpt/sockx"
)

var (
	listenAddr     = flag.String("udpt.addr", ":5201", "The address on which to receive probe streams")
	resultsAddr    = flag.String("udpt.results_addr", ":8654", "The address on which to serve test results over HTTP")
	reportInterval = flag.Duration("udpt.interval", time.Second, "How often to snapshot and print interval results")

	// Context for the whole program.
	ctx, cancel = context.WithCancel(context.Background())

	resultHandler = &report.Handler{}
)

// serveOne measures a single probe stream on conn, prints its reports, and
// publishes the aggregate on the results endpoint.
func serveOne(conn sockx.Conn, interval time.Duration) error {
	ctrl := make(chan control.Command, 1)
	ctrl <- control.Start
	rcv := receiver.New(interval, ctrl)
	rcv.OnInterval = func(iv model.IntervalResult) {
		report.WriteInterval(os.Stdout, iv)
	}
	results, err := rcv.Run(conn)
	if err != nil {
		return err
	}
	tr := model.FromIntervals(results)
	tr.UUID = uuid.NewString()
	metrics.TestRate.Observe(tr.MeanBitrate / 1e6)
	resultHandler.Update(tr)
	report.WriteFinal(os.Stdout, tr)
	return nil
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment")
	defer cancel()

	promSrv := prometheusx.MustServeMetrics()
	defer promSrv.Close()

	mux := http.NewServeMux()
	mux.Handle("/results", resultHandler)
	resultsSrv := &http.Server{
		Addr:    *resultsAddr,
		Handler: logging.MakeAccessLogHandler(mux),
	}
	rtx.Must(httpx.ListenAndServeAsync(resultsSrv), "Could not start results server")
	defer resultsSrv.Close()

	addr, err := net.ResolveUDPAddr("udp", *listenAddr)
	rtx.Must(err, "Could not resolve the listen address")
	sock, err := net.ListenUDP("udp", addr)
	rtx.Must(err, "Could not bind the probe socket")
	defer sock.Close()
	logging.Logger.WithFields(log.Fields{
		"addr": sock.LocalAddr().String(),
	}).Info("listening for probe streams")

	for ctx.Err() == nil {
		if err := serveOne(sockx.NewPolling(ctx, sock), *reportInterval); err != nil {
			if ctx.Err() != nil {
				break
			}
			// A stream that went silent mid-test is an ordinary client
			// failure; everything is ready for the next one either way.
			logging.Logger.WithError(err).Warn("test aborted")
		}
	}
}
