package hdc_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

func TestMetaHdcVersion(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgMeta, hdc.MetaHdcVersion})
	got := h.recvPayload()
	want := append([]byte{hdc.MsgMeta, hdc.MetaHdcVersion}, []byte(hdc.ProtocolVersion)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("reply = %X, want %X", got, want)
	}
}

func TestMetaMaxReq(t *testing.T) {
	t.Parallel()

	cfg := hdc.Config{MaxReqMessageSize: 200, TXBufCap: hdc.MinTXCap}
	h := newHarness(t, cfg, []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgMeta, hdc.MetaMaxReq})
	got := h.recvPayload()

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, 200)
	want := append([]byte{hdc.MsgMeta, hdc.MetaMaxReq}, buf...)
	if !bytes.Equal(got, want) {
		t.Fatalf("reply = %X, want %X", got, want)
	}
}

func TestMetaEchoesTrailingBytes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgMeta, hdc.MetaHdcVersion, 0xAA, 0xBB})
	got := h.recvPayload()
	want := append(append([]byte{hdc.MsgMeta, hdc.MetaHdcVersion}, []byte(hdc.ProtocolVersion)...), 0xAA, 0xBB)
	if !bytes.Equal(got, want) {
		t.Fatalf("reply = %X, want %X", got, want)
	}
}

func TestMetaUnknownIDLogsAndDrops(t *testing.T) {
	t.Parallel()

	h := newHarness(t, hdc.DefaultConfig(), []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgMeta, 0xEE})
	got := h.recvPayload()
	if got[0] != hdc.MsgEvent || got[2] != hdc.EvtLog {
		t.Fatalf("reply = %X, want a Log event, not a Meta reply", got)
	}
}

type idlDescriptor struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	DType   string `json:"dtype"`
	RO      bool   `json:"ro"`
	Doc     string `json:"doc"`
	Args    []idlArg `json:"args"`
	Returns []idlArg `json:"returns"`
	Raises  []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"raises"`
}

type idlArg struct {
	DType string `json:"dtype"`
	Name  string `json:"name"`
}

type idlFeature struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Cls     string `json:"cls"`
	Version string `json:"version"`
	Doc     string `json:"doc"`
	States  []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Doc  string `json:"doc"`
	} `json:"states"`
	Commands   []idlDescriptor `json:"commands"`
	Properties []idlDescriptor `json:"properties"`
	Events     []idlDescriptor `json:"events"`
}

type idlDoc struct {
	Version  string       `json:"version"`
	MaxReq   int          `json:"max_req"`
	Features []idlFeature `json:"features"`
}

func TestMetaIdlJSONDecodable(t *testing.T) {
	t.Parallel()

	cfg := hdc.DefaultConfig()
	h := newHarness(t, cfg, []*hdc.Feature{newCoreOnlyFeature()})

	h.send([]byte{hdc.MsgMeta, hdc.MetaIdlJSON})
	got := h.recvPayload()
	if got[0] != hdc.MsgMeta || got[1] != hdc.MetaIdlJSON {
		t.Fatalf("reply header = %X, want Meta/IdlJSON", got[:2])
	}

	var doc idlDoc
	if err := json.Unmarshal(got[2:], &doc); err != nil {
		t.Fatalf("could not decode IDL JSON: %v\nraw: %s", err, got[2:])
	}

	if doc.Version != hdc.ProtocolVersion {
		t.Fatalf("version = %q, want %q", doc.Version, hdc.ProtocolVersion)
	}
	if doc.MaxReq != cfg.MaxReqMessageSize {
		t.Fatalf("max_req = %d, want %d", doc.MaxReq, cfg.MaxReqMessageSize)
	}
	if len(doc.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(doc.Features))
	}

	f := doc.Features[0]
	if f.ID != int(hdc.FeatureIDCore) {
		t.Fatalf("feature id = %d, want 0", f.ID)
	}
	if len(f.Commands) != 2 {
		t.Fatalf("commands = %d, want 2 (the mandatory pair)", len(f.Commands))
	}
	if len(f.Properties) != 2 {
		t.Fatalf("properties = %d, want 2 (the mandatory pair)", len(f.Properties))
	}
	if len(f.Events) != 2 {
		t.Fatalf("events = %d, want 2 (the mandatory pair)", len(f.Events))
	}
}
