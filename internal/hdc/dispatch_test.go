package hdc_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

func TestDispatchEchoRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	payload := []byte{hdc.MsgEcho, 0xDE, 0xAD, 0xBE, 0xEF}
	h.send(payload)

	got := h.recvPayload()
	if !bytes.Equal(got, payload) {
		t.Fatalf("echo reply = %X, want identical %X", got, payload)
	}
}

func TestDispatchUnknownFeatureException(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgCommand, 0x55, 0x01})
	got := h.recvPayload()
	want := []byte{hdc.MsgCommand, 0x55, 0x01, hdc.ExcUnknownFeature}
	if !bytes.Equal(got, want) {
		t.Fatalf("reply = %X, want %X", got, want)
	}
}

func TestDispatchUnknownCommandException(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgCommand, hdc.FeatureIDCore, 0x77})
	got := h.recvPayload()
	want := []byte{hdc.MsgCommand, hdc.FeatureIDCore, 0x77, hdc.ExcUnknownCommand}
	if !bytes.Equal(got, want) {
		t.Fatalf("reply = %X, want %X", got, want)
	}
}

func TestDispatchMalformedCommandRequestEmitsLogEvent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgCommand, 0x00}) // missing CommandID byte
	got := h.recvPayload()
	if len(got) < 3 || got[0] != hdc.MsgEvent || got[1] != hdc.FeatureIDCore || got[2] != hdc.EvtLog {
		t.Fatalf("reply = %X, want a Core Log event", got)
	}
}

func TestDispatchCustomRouterHandlesSubReservedMessageType(t *testing.T) {
	t.Parallel()

	routed := make(chan []byte, 1)
	router := func(_ *hdc.Device, payload []byte) bool {
		routed <- append([]byte(nil), payload...)
		return true
	}

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()}, hdc.WithCustomRouter(router))
	h.send([]byte{0x05, 0xAA, 0xBB})

	select {
	case got := <-routed:
		want := []byte{0x05, 0xAA, 0xBB}
		if !bytes.Equal(got, want) {
			t.Fatalf("router saw %X, want %X", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("custom router was never invoked")
	}
}

func TestDispatchUnhandledCustomMessageEmitsLogEvent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{0x05, 0xAA})
	got := h.recvPayload()
	if len(got) < 3 || got[0] != hdc.MsgEvent || got[2] != hdc.EvtLog {
		t.Fatalf("reply = %X, want a Core Log event", got)
	}
}

func TestDispatchRouterFalseFallsThroughToLog(t *testing.T) {
	t.Parallel()

	router := func(_ *hdc.Device, _ []byte) bool { return false }
	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()}, hdc.WithCustomRouter(router))

	h.send([]byte{0x05, 0xAA})
	got := h.recvPayload()
	if len(got) < 3 || got[0] != hdc.MsgEvent || got[2] != hdc.EvtLog {
		t.Fatalf("reply = %X, want a Core Log event when router declines", got)
	}
}
