// udpt-client transmits a paced UDP probe stream to a udpt server. The
// server side of the connection does the measuring; the client prints its
// own transmission progress as it goes.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"
	"github.com/m-lab/udpt-server/udpt/bitrate"
	"github.com/m-lab/udpt-server/udpt/control"
	"github.com/m-lab/udpt-server/udpt/sender"
	"github.com/m-lab/udpt-server/udpt/sockx"
	"github.com/m-lab/udpt-server/udpt/spec"
)

var (
	server   = flag.String("server", "localhost:5201", "The udpt server to transmit to, as host:port")
	rate     = flag.String("bitrate", "1M", "Target bitrate in bits per second; accepts K, M and G suffixes")
	size     = flag.Int("size", spec.DefaultPayloadSize, "Probe packet size in bytes, header included")
	duration = flag.Duration("duration", 10*time.Second, "How long to transmit")
	interval = flag.Duration("interval", time.Second, "How often to print transmission progress")
)

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment")

	bps, err := bitrate.Parse(*rate)
	if err != nil {
		log.WithError(err).Warn("could not parse -bitrate")
		os.Exit(1)
	}
	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		log.WithError(err).Warn("could not resolve the server address")
		os.Exit(1)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.WithError(err).Warn("could not dial the server")
		os.Exit(1)
	}
	defer conn.Close()

	ctrl := make(chan control.Command, 1)
	ctrl <- control.Start
	snd := sender.New(bps, *size, *duration, ctrl)
	snd.ReportInterval = *interval
	sent, err := snd.Run(sockx.NewBlocking(conn))
	if err != nil {
		log.WithError(err).Warn("transmission failed")
		os.Exit(1)
	}
	fmt.Printf("Done: sent %d probe packets to %s.\n", sent, *server)
}
