package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/m-lab/go/osx"
	"github.com/m-lab/go/prometheusx/promtest"
	"github.com/m-lab/go/rtx"
	"github.com/m-lab/udpt-server/udpt/control"
	"github.com/m-lab/udpt-server/udpt/model"
	"github.com/m-lab/udpt-server/udpt/sender"
	"github.com/m-lab/udpt-server/udpt/sockx"
)

// getOpenUDPAddr binds a loopback UDP socket on an ephemeral port and then
// closes it. Hopefully the port remains free for the next few microseconds
// so that main can bind it.
func getOpenUDPAddr(t *testing.T) string {
	t.Helper()
	sock, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	rtx.Must(err, "Could not bind a udp socket")
	defer sock.Close()
	return sock.LocalAddr().String()
}

// getOpenTCPAddr does the same dance for a TCP port.
func getOpenTCPAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	rtx.Must(err, "Could not bind a tcp socket")
	defer ln.Close()
	return ln.Addr().String()
}

// setupMain points all of main's listen addresses at free loopback ports
// via environment variables and returns a cleanup function.
func setupMain(t *testing.T) func() {
	cleanups := []func(){}
	for _, ev := range []struct{ key, value string }{
		{"UDPT_ADDR", getOpenUDPAddr(t)},
		{"UDPT_RESULTS_ADDR", getOpenTCPAddr(t)},
		{"UDPT_INTERVAL", "100ms"},
		{"PROMETHEUSX_LISTEN_ADDRESS", getOpenTCPAddr(t)},
	} {
		cleanups = append(cleanups, osx.MustSetenv(ev.key, ev.value))
	}
	return func() {
		for _, f := range cleanups {
			f()
		}
	}
}

func Test_ContextCancelsMain(t *testing.T) {
	cleanup := setupMain(t)
	defer cleanup()

	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()
	// If this does not run forever, then canceling the context causes main
	// to exit.
	main()
}

func TestMetrics(t *testing.T) {
	promtest.LintMetrics(t)
}

func Test_MainIntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Integration tests take too long")
	}
	cleanup := setupMain(t)
	defer cleanup()

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	go main()
	// Give main a little time to grab its ports and start listening.
	time.Sleep(500 * time.Millisecond)

	// Run one complete client transmission against the server.
	addr, err := net.ResolveUDPAddr("udp", *listenAddr)
	rtx.Must(err, "Could not resolve the server address")
	conn, err := net.DialUDP("udp", nil, addr)
	rtx.Must(err, "Could not dial the server")
	defer conn.Close()

	ctrl := make(chan control.Command, 1)
	ctrl <- control.Start
	snd := sender.New(5e6, 512, 300*time.Millisecond, ctrl)
	sent, err := snd.Run(sockx.NewBlocking(conn))
	rtx.Must(err, "Client transmission failed")
	if sent == 0 {
		t.Fatal("the client sent no data packets")
	}

	// The aggregate result should appear on the results endpoint once the
	// server has seen the FIN.
	url := "http://" + *resultsAddr + "/results"
	var tr model.TestResult
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			rtx.Must(json.NewDecoder(resp.Body).Decode(&tr), "Could not decode the test result")
			resp.Body.Close()
			break
		}
		if err == nil {
			resp.Body.Close()
		}
		if time.Now().After(deadline) {
			t.Fatal("no test result served before the deadline")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if tr.UUID == "" {
		t.Error("the served result has no UUID")
	}
	if tr.TotalPackets != sent+1 {
		t.Errorf("TotalPackets = %d, want %d including the FIN", tr.TotalPackets, sent+1)
	}
	if tr.TotalLost != 0 {
		t.Errorf("loopback test recorded %d lost packets", tr.TotalLost)
	}
}
