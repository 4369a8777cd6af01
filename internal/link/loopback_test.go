package link_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dantte-lp/gohdc/internal/link"
)

func TestLoopbackDeliversQueuedBytesOnStartRX(t *testing.T) {
	t.Parallel()

	a, b := link.NewLoopbackPair()

	var mu sync.Mutex
	var got []byte
	done := make(chan struct{})
	b.Bind(func(n int) {
		mu.Lock()
		got = append(got, make([]byte, n)...)
		mu.Unlock()
		close(done)
	}, nil)

	payload := []byte{0xAA, 0xBB, 0xCC}
	if err := a.StartTX(payload, len(payload)); err != nil {
		t.Fatalf("StartTX: %v", err)
	}

	rxBuf := make([]byte, 16)
	if err := b.StartRX(rxBuf); err != nil {
		t.Fatalf("StartRX: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	n := len(got)
	mu.Unlock()
	if n != len(payload) {
		t.Fatalf("delivered %d bytes, want %d", n, len(payload))
	}
}

func TestLoopbackDeliversImmediatelyWhenRXAlreadyArmed(t *testing.T) {
	t.Parallel()

	a, b := link.NewLoopbackPair()

	rxBuf := make([]byte, 16)
	rxDone := make(chan int, 1)
	b.Bind(func(n int) { rxDone <- n }, nil)

	if err := b.StartRX(rxBuf); err != nil {
		t.Fatalf("StartRX: %v", err)
	}

	payload := []byte{0x01, 0x02}
	if err := a.StartTX(payload, len(payload)); err != nil {
		t.Fatalf("StartTX: %v", err)
	}

	select {
	case n := <-rxDone:
		if n != len(payload) {
			t.Fatalf("delivered %d bytes, want %d", n, len(payload))
		}
		for i, b := range rxBuf[:n] {
			if b != payload[i] {
				t.Fatalf("rxBuf[%d] = %#x, want %#x", i, b, payload[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestLoopbackStartTXReportsCompletion(t *testing.T) {
	t.Parallel()

	a, b := link.NewLoopbackPair()
	b.Bind(nil, nil)

	txDone := make(chan struct{})
	a.Bind(nil, func() { close(txDone) })

	if err := a.StartTX([]byte{0x01}, 1); err != nil {
		t.Fatalf("StartTX: %v", err)
	}

	select {
	case <-txDone:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for TX completion")
	}
}

func TestLoopbackAbortRXClearsPendingBuffer(t *testing.T) {
	t.Parallel()

	a, b := link.NewLoopbackPair()
	_ = a

	rxBuf := make([]byte, 8)
	if err := b.StartRX(rxBuf); err != nil {
		t.Fatalf("StartRX: %v", err)
	}
	b.AbortRX()

	// A subsequent TX with no one armed should simply queue, not panic or
	// write into the aborted buffer.
	if err := a.StartTX([]byte{0xFF}, 1); err != nil {
		t.Fatalf("StartTX: %v", err)
	}
}

func TestLoopbackNowMSIsMonotonicish(t *testing.T) {
	t.Parallel()

	a, _ := link.NewLoopbackPair()
	t1 := a.NowMS()
	time.Sleep(time.Millisecond)
	t2 := a.NowMS()
	if t2 < t1 {
		t.Fatalf("NowMS went backwards: %d -> %d", t1, t2)
	}
}
