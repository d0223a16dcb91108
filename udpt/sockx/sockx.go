// Package sockx abstracts the UDP socket operations the probe actors need,
// so that one state-machine core serves both concurrency models. Blocking
// is the preemptive-thread variant: calls hold their goroutine until the
// kernel returns. Polling is the cooperative variant: receives are chopped
// into short deadline-bounded reads so the actor can observe context
// cancellation between them.
package sockx

import (
	"context"
	"net"
	"time"
)

// pollInterval is the read-deadline slice used by the cooperative variant.
// Short enough that cancellation is prompt, long enough that re-arming the
// deadline does not show up in the data path.
const pollInterval = 100 * time.Millisecond

// Conn is the socket capability interface consumed by the sender and
// receiver actors.
type Conn interface {
	// Send transmits one datagram on the connected socket.
	Send(b []byte) (int, error)

	// Recv blocks until a datagram arrives, the configured receive
	// timeout expires, or (cooperative variant) the context is done.
	Recv(b []byte) (int, error)

	// SetRecvTimeout bounds each subsequent Recv. Zero means no bound.
	SetRecvTimeout(d time.Duration)
}

// IsTimeout reports whether err is a receive-timeout failure rather than a
// transport fault. Timeouts are the one receive error a caller may want to
// treat differently: the peer may simply have crashed without sending FIN.
func IsTimeout(err error) bool {
	nerr, ok := err.(net.Error)
	return ok && nerr.Timeout()
}

// Blocking is the preemptive-thread socket variant. It owns one connected
// UDP socket and must be used from a single goroutine.
type Blocking struct {
	conn        *net.UDPConn
	recvTimeout time.Duration
}

// NewBlocking wraps a connected UDP socket.
func NewBlocking(conn *net.UDPConn) *Blocking {
	return &Blocking{conn: conn}
}

// Send implements Conn.
func (b *Blocking) Send(buf []byte) (int, error) {
	return b.conn.Write(buf)
}

// Recv implements Conn.
func (b *Blocking) Recv(buf []byte) (int, error) {
	if b.recvTimeout > 0 {
		if err := b.conn.SetReadDeadline(time.Now().Add(b.recvTimeout)); err != nil {
			return 0, err
		}
	}
	return b.conn.Read(buf)
}

// SetRecvTimeout implements Conn.
func (b *Blocking) SetRecvTimeout(d time.Duration) {
	b.recvTimeout = d
}

// Polling is the cooperative socket variant. Recv honours ctx: a cancelled
// context surfaces as ctx.Err() at the next poll boundary, never by
// interrupting an in-flight kernel read.
type Polling struct {
	ctx         context.Context
	conn        *net.UDPConn
	recvTimeout time.Duration
}

// NewPolling wraps a connected UDP socket with a context that bounds every
// receive.
func NewPolling(ctx context.Context, conn *net.UDPConn) *Polling {
	return &Polling{ctx: ctx, conn: conn}
}

// Send implements Conn.
func (p *Polling) Send(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	return p.conn.Write(buf)
}

// Recv implements Conn. It reads in pollInterval slices so that context
// cancellation and the receive timeout are both observed promptly.
func (p *Polling) Recv(buf []byte) (int, error) {
	begin := time.Now()
	for {
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
		slice := pollInterval
		if p.recvTimeout > 0 {
			if left := p.recvTimeout - time.Since(begin); left < slice {
				slice = left
			}
		}
		if err := p.conn.SetReadDeadline(time.Now().Add(slice)); err != nil {
			return 0, err
		}
		n, err := p.conn.Read(buf)
		if err == nil {
			return n, nil
		}
		if !IsTimeout(err) {
			return 0, err
		}
		// This slice timed out. Give up only once the whole budget is
		// spent; otherwise go around and poll again.
		if p.recvTimeout > 0 && time.Since(begin) >= p.recvTimeout {
			return 0, err
		}
	}
}

// SetRecvTimeout implements Conn.
func (p *Polling) SetRecvTimeout(d time.Duration) {
	p.recvTimeout = d
}
