package hdc

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// MinTXCap is the smallest configurable TX buffer capacity: one full
// 255-byte packet plus its 3 bytes of framing overhead (spec.md §4.2).
const MinTXCap = MaxPacketPayload + PacketOverhead

// Composer implements the double-buffered, zero-allocation-on-the-hot-path
// TX composition engine described in spec.md §4.2. At any time one of its
// two buffers is either idle or being drained by the link; the other is
// the composition buffer being appended to. Composer is not safe for
// concurrent composition from multiple goroutines -- the orchestrator's
// cooperative Work()/Flush() loop is the only composing caller -- but
// NotifyTXComplete may be called from a different goroutine simulating a
// link interrupt.
type Composer struct {
	link Link
	cap  int
	bufs [2][]byte

	curIdx int // index of the buffer currently being composed into

	txComplete atomic.Bool

	composing   bool
	packetStart int // offset of the reserved size-prefix byte of the in-flight packet
	payloadLen  int
	lastFull    bool // true if the most recently finalized packet had ps == 255

	onFatal func(error)
}

// NewComposer allocates a Composer with two TX buffers of capacity
// bufCap, which must be at least MinTXCap. onFatal, if non-nil, is called
// when the link reports a transmit error (spec.md §4.8: link errors are
// fatal).
func NewComposer(link Link, bufCap int, onFatal func(error)) *Composer {
	if bufCap < MinTXCap {
		panic(fmt.Sprintf("hdc: TX buffer capacity %d is below the minimum %d", bufCap, MinTXCap))
	}
	c := &Composer{
		link:    link,
		cap:     bufCap,
		onFatal: onFatal,
	}
	c.bufs[0] = make([]byte, 0, bufCap)
	c.bufs[1] = make([]byte, 0, bufCap)
	c.txComplete.Store(true)
	return c
}

// NotifyTXComplete must be invoked (typically from the link adapter, on
// its own goroutine) once an outstanding StartTX call has finished
// draining its buffer.
func (c *Composer) NotifyTXComplete() {
	c.txComplete.Store(true)
}

// reserve ensures the composition buffer has at least n free bytes,
// swapping TX buffers (busy-waiting for the previous transmit to drain)
// as many times as necessary.
func (c *Composer) reserve(n int) {
	for cap(c.bufs[c.curIdx])-len(c.bufs[c.curIdx]) < n {
		for !c.txComplete.Load() {
			runtime.Gosched()
		}
		c.swap()
	}
}

// swap starts transmitting the just-composed buffer and makes the other
// (now guaranteed idle) buffer the new composition buffer.
func (c *Composer) swap() {
	txIdx := c.curIdx
	buf := c.bufs[txIdx]
	if len(buf) > 0 {
		c.txComplete.Store(false)
		if err := c.link.StartTX(buf, len(buf)); err != nil && c.onFatal != nil {
			c.onFatal(fmt.Errorf("hdc: start tx: %w", err))
		}
	}
	c.curIdx = 1 - txIdx
	c.bufs[c.curIdx] = c.bufs[c.curIdx][:0]
}

// startPacket reserves room for an entire worst-case packet (255-byte
// payload plus 3 bytes of overhead) and writes the placeholder
// size-prefix byte, which FinalizePacket patches in later.
func (c *Composer) startPacket() {
	c.reserve(PacketOverhead + MaxPacketPayload)
	c.packetStart = len(c.bufs[c.curIdx])
	c.bufs[c.curIdx] = append(c.bufs[c.curIdx], 0)
	c.payloadLen = 0
}

func (c *Composer) finalizePacket() {
	buf := c.bufs[c.curIdx]
	payload := buf[c.packetStart+1 : c.packetStart+1+c.payloadLen]
	buf[c.packetStart] = byte(c.payloadLen)
	buf = append(buf, checksum(payload), Terminator)
	c.bufs[c.curIdx] = buf
	c.lastFull = c.payloadLen == MaxPacketPayload
}

// BeginMessage starts composing a new multi-packet message.
func (c *Composer) BeginMessage() {
	if c.composing {
		panic("hdc: BeginMessage called while a message is already being composed")
	}
	c.composing = true
	c.startPacket()
}

// Append adds bytes to the message currently being composed, splitting
// into additional 255-byte packets as needed.
func (c *Composer) Append(data []byte) {
	if !c.composing {
		panic("hdc: Append called outside BeginMessage/EndMessage")
	}
	for len(data) > 0 {
		if c.payloadLen == MaxPacketPayload {
			c.finalizePacket()
			c.startPacket()
		}
		room := MaxPacketPayload - c.payloadLen
		n := len(data)
		if n > room {
			n = room
		}
		c.bufs[c.curIdx] = append(c.bufs[c.curIdx], data[:n]...)
		c.payloadLen += n
		data = data[n:]
	}
}

// EndMessage finalizes the last packet of the message being composed. If
// that packet was a full 255-byte packet, an extra empty packet is
// emitted so the host can detect the message boundary (spec.md §3).
func (c *Composer) EndMessage() {
	if !c.composing {
		panic("hdc: EndMessage called outside BeginMessage")
	}
	c.finalizePacket()
	if c.lastFull {
		c.reserve(PacketOverhead)
		c.bufs[c.curIdx] = append(c.bufs[c.curIdx], 0, 0, Terminator)
	}
	c.composing = false
}

// AppendBuffer composes data as a standalone message.
func (c *Composer) AppendBuffer(data []byte) {
	c.BeginMessage()
	c.Append(data)
	c.EndMessage()
}

// Pending reports whether the composition buffer currently holds any
// unflushed bytes.
func (c *Composer) Pending() bool {
	return len(c.bufs[c.curIdx]) > 0
}

// TryFlush opportunistically starts transmitting the composition buffer
// if it holds any bytes and the link is idle. Unlike Flush, it never
// waits: Device.Work calls it once per iteration, and it is what puts
// composed replies and events on the wire when no buffer swap or Flush
// has sent them already.
func (c *Composer) TryFlush() {
	if c.composing || !c.txComplete.Load() {
		return
	}
	if len(c.bufs[c.curIdx]) == 0 {
		return
	}
	c.swap()
}

// Flush triggers a transmit of the composition buffer if it holds any
// bytes, then waits for that transmit to complete, bounded by timeoutMS
// of wall-clock time. On timeout it returns quietly; the caller's next
// Work() call will retry.
func (c *Composer) Flush(timeoutMS uint64) {
	c.reserve(c.cap)

	deadline := c.link.NowMS() + timeoutMS
	for !c.txComplete.Load() {
		if c.link.NowMS() >= deadline {
			return
		}
		runtime.Gosched()
	}
}
