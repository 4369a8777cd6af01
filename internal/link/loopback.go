// Package link provides hdc.Link adapters: a real termios-configured UART
// transport for Linux, and an in-memory Loopback pair for tests and the
// host-side simulator.
package link

import (
	"sync"
	"time"
)

// Loopback is an in-memory hdc.Link. A pair of Loopbacks created by
// NewLoopbackPair feed each other directly, so one end can stand in for
// the device and the other for the host, with no real serial hardware.
//
// Mirrors the injectable-double shape used for netio's packet-conn mocks:
// deterministic, mutex-guarded, callback-driven rather than channel-driven
// so it can sit behind the exact Link interface hdc.Device expects.
type Loopback struct {
	mu sync.Mutex

	peer *Loopback

	pendingRX []byte
	queued    []byte

	onRXEvent    func(n int)
	onTXComplete func()
}

// NewLoopbackPair returns two Loopbacks wired to each other: bytes written
// to a's StartTX arrive at b's next StartRX, and vice versa.
func NewLoopbackPair() (a, b *Loopback) {
	a = &Loopback{}
	b = &Loopback{}
	a.peer = b
	b.peer = a
	return a, b
}

// Bind wires the callbacks a Device registers after construction (see
// hdc.Device.Start). Must be called before Start.
func (l *Loopback) Bind(onRXEvent func(n int), onTXComplete func()) {
	l.mu.Lock()
	l.onRXEvent = onRXEvent
	l.onTXComplete = onTXComplete
	l.mu.Unlock()
}

// StartRX implements hdc.Link. If bytes are already queued from a prior
// StartTX on the peer, it delivers them immediately.
func (l *Loopback) StartRX(buf []byte) error {
	l.mu.Lock()
	if len(l.queued) == 0 {
		l.pendingRX = buf
		l.mu.Unlock()
		return nil
	}
	n := copy(buf, l.queued)
	l.queued = l.queued[n:]
	cb := l.onRXEvent
	l.mu.Unlock()

	if cb != nil {
		go cb(n)
	}
	return nil
}

// AbortRX implements hdc.Link.
func (l *Loopback) AbortRX() {
	l.mu.Lock()
	l.pendingRX = nil
	l.mu.Unlock()
}

// StartTX implements hdc.Link: it hands the bytes to the peer and reports
// completion asynchronously, the way a real transmit would.
func (l *Loopback) StartTX(buf []byte, n int) error {
	data := append([]byte(nil), buf[:n]...)
	l.peer.deliver(data)

	l.mu.Lock()
	cb := l.onTXComplete
	l.mu.Unlock()
	if cb != nil {
		go cb()
	}
	return nil
}

// NowMS implements hdc.Link.
func (l *Loopback) NowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}

func (l *Loopback) deliver(data []byte) {
	l.mu.Lock()
	if l.pendingRX == nil {
		l.queued = append(l.queued, data...)
		l.mu.Unlock()
		return
	}

	buf := l.pendingRX
	n := copy(buf, data)
	l.pendingRX = nil
	if n < len(data) {
		l.queued = append(l.queued, data[n:]...)
	}
	cb := l.onRXEvent
	l.mu.Unlock()

	if cb != nil {
		go cb(n)
	}
}
