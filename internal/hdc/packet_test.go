package hdc_test

import (
	"bytes"
	"testing"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

func TestFinalizePacketChecksumLaw(t *testing.T) {
	t.Parallel()

	for _, payload := range [][]byte{
		nil,
		{0x00},
		{0xF1, 0xDE, 0xAD, 0xBE, 0xEF},
		bytes.Repeat([]byte{0x55}, 255),
	} {
		pkt, err := hdc.FinalizePacket(nil, payload)
		if err != nil {
			t.Fatalf("FinalizePacket(%d bytes): %v", len(payload), err)
		}

		if got, want := len(pkt), 1+len(payload)+1+1; got != want {
			t.Fatalf("packet length = %d, want %d", got, want)
		}
		if pkt[0] != byte(len(payload)) {
			t.Fatalf("size prefix = %d, want %d", pkt[0], len(payload))
		}
		if pkt[len(pkt)-1] != hdc.Terminator {
			t.Fatalf("terminator = %#x, want %#x", pkt[len(pkt)-1], hdc.Terminator)
		}

		var sum byte
		for _, b := range pkt[1 : len(pkt)-1] {
			sum += b
		}
		if sum != 0 {
			t.Fatalf("payload+checksum sum = %d, want 0 mod 256", sum)
		}
	}
}

func TestFinalizePacketRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	_, err := hdc.FinalizePacket(nil, bytes.Repeat([]byte{0x01}, 256))
	if err != hdc.ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestFinalizePacketAppendsToExistingSlice(t *testing.T) {
	t.Parallel()

	dst := []byte{0xAA, 0xBB}
	pkt, err := hdc.FinalizePacket(dst, []byte{0x01})
	if err != nil {
		t.Fatalf("FinalizePacket: %v", err)
	}
	if !bytes.Equal(pkt[:2], []byte{0xAA, 0xBB}) {
		t.Fatalf("prefix not preserved: %X", pkt[:2])
	}
	if !bytes.Equal(pkt[2:], []byte{0x01, 0x01, 0xFF, hdc.Terminator}) {
		t.Fatalf("appended packet = %X", pkt[2:])
	}
}
