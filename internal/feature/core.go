// Package feature provides ready-to-register hdc.Feature descriptors.
// Core is grounded on the STM32 demo firmware's Core feature
// (original_source/STM32/demo/Demo_Minimal_NUCLEO-F303RE/Core/Src/feature_core.c):
// the same mandatory-feature-id=0x00 identification properties, the same
// Reset command, the same simulated LED/button demo wiring, translated
// from microcontroller register reads to values this process can actually
// produce (runtime identity instead of HAL_GetDEVID/HAL_GetREVID/UID_BASE).
package feature

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"os"
	"sync/atomic"
	"time"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

// Core states, mirroring Core_State_t from the STM32 demo.
const (
	CoreStateOff          uint8 = 0x00
	CoreStateInitializing uint8 = 0x01
	CoreStateReady        uint8 = 0x02
	// CoreStateError reuses hdc.FeatureStateError (0xFF).
)

// Core event ids (feature-local, below the 0xF0 reserved threshold).
const (
	EvtButton uint8 = 0x01
)

// Core commands/properties ids, mirroring the demo's wire numbering.
const (
	CmdReset uint8 = 0xC1

	PropDeviceID        uint8 = 0x10
	PropRuntimeID       uint8 = 0x11
	PropUniqueID        uint8 = 0x12
	PropLedBlinkingRate uint8 = 0x13
)

// Core is the mandatory id=0x00 feature: device identification, a Reset
// command, and a small LED/button demo that exercises Properties and
// Events the way the STM32 firmware's Core feature does.
type Core struct {
	dev *hdc.Device
	f   *hdc.Feature

	deviceID  uint32
	runtimeID uint32
	uniqueID  [12]byte

	ledRate   atomic.Uint32 // Hz, 1..255
	ledOn     atomic.Bool
	button    atomic.Bool
	onReset   func()
}

// NewCore builds the Core feature descriptor. onReset is invoked after the
// Reset reply has been flushed, mirroring the STM32 demo's
// NVIC_SystemReset() call at the end of Core_HDC_Cmd_Reset -- callers
// typically wire this to process restart/shutdown logic.
func NewCore(onReset func()) *Core {
	c := &Core{
		deviceID:   runtimeDeviceID(),
		runtimeID:  1,
		onReset:    onReset,
	}
	if _, err := rand.Read(c.uniqueID[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a deterministic id rather than leaving
		// it zeroed, so GetPropertyValue still returns something.
		binary.LittleEndian.PutUint32(c.uniqueID[:4], c.deviceID)
	}
	c.ledRate.Store(5)

	f := hdc.NewFeature(0x00, "Core", "MinimalCore", "1", "Core feature of the gohdc demo device.")

	mustAdd(f.AddState(&hdc.State{ID: CoreStateOff, Name: "Off"}))
	mustAdd(f.AddState(&hdc.State{ID: CoreStateInitializing, Name: "Initializing"}))
	mustAdd(f.AddState(&hdc.State{ID: CoreStateReady, Name: "Ready"}))
	mustAdd(f.AddState(&hdc.State{ID: hdc.FeatureStateError, Name: "Error"}))

	mustAdd(f.AddCommand(&hdc.Command{
		ID:      CmdReset,
		Name:    "Reset",
		Handler: c.handleReset,
		Doc:     "(void) -> void\nReinitializes the whole device.",
	}))

	mustAdd(f.AddEvent(&hdc.Event{
		ID:   EvtButton,
		Name: "ButtonEvent",
		Args: []hdc.Arg{
			{DType: hdc.UINT8, Name: "ButtonID"},
			{DType: hdc.UINT8, Name: "ButtonState"},
		},
		Doc: "Notifies the host that a button was pressed or released on the device.",
	}))

	mustAdd(f.AddProperty(&hdc.Property{
		ID:       PropDeviceID,
		Name:     "DeviceID",
		DType:    hdc.UINT32,
		Readonly: true,
		Getter:   func(*hdc.Device, *hdc.Feature, *hdc.Property) []byte { return le32(c.deviceID) },
		Doc:      "32bit device identifier of the running process/host.",
	}))
	mustAdd(f.AddProperty(&hdc.Property{
		ID:       PropRuntimeID,
		Name:     "RuntimeID",
		DType:    hdc.UINT32,
		Readonly: true,
		Getter:   func(*hdc.Device, *hdc.Feature, *hdc.Property) []byte { return le32(c.runtimeID) },
		Doc:      "32bit runtime build identifier.",
	}))
	mustAdd(f.AddProperty(&hdc.Property{
		ID:           PropUniqueID,
		Name:         "UniqueID",
		DType:        hdc.BLOB,
		Readonly:     true,
		DeclaredSize: 12,
		Getter:       func(*hdc.Device, *hdc.Feature, *hdc.Property) []byte { return append([]byte(nil), c.uniqueID[:]...) },
		Doc:          "96bit unique identifier, generated once at process start.",
	}))
	mustAdd(f.AddProperty(&hdc.Property{
		ID:    PropLedBlinkingRate,
		Name:  "LedBlinkingRate",
		DType: hdc.UINT8,
		Getter: func(*hdc.Device, *hdc.Feature, *hdc.Property) []byte {
			return []byte{byte(c.ledRate.Load())}
		},
		Setter: func(_ *hdc.Device, _ *hdc.Feature, _ *hdc.Property, value []byte) []byte {
			rate := value[0]
			if rate == 0 {
				rate = 1
			}
			c.ledRate.Store(uint32(rate))
			return []byte{rate}
		},
		Doc: "Blinking frequency of the demo LED, given in Hertz.",
	}))

	c.f = f
	return c
}

// Feature returns the underlying descriptor, ready to pass to hdc.Init.
func (c *Core) Feature() *hdc.Feature { return c.f }

// Bind attaches the Device once it exists (see hdc.Device.Start), enabling
// Tick and PressButton to emit events and log through it.
func (c *Core) Bind(dev *hdc.Device) { c.dev = dev }

// Initialize runs the Off->Initializing->Ready transition sequence, the
// same ordering Core_Init performs before any feature work begins.
func (c *Core) Initialize() {
	c.dev.FeatureStateTransition(c.f, CoreStateInitializing)
	c.dev.FeatureStateTransition(c.f, CoreStateReady)
}

// Tick drives the LED-blink demo behavior, emitting a Debug log on each
// LED toggle, the Go analogue of Core_UpdateState's per-iteration
// housekeeping. Call it once per Device.Work() iteration.
func (c *Core) Tick(now time.Time) {
	rate := c.ledRate.Load()
	period := time.Second / time.Duration(rate)
	phase := now.UnixNano() / int64(period)
	shouldBeOn := phase%2 == 0
	if shouldBeOn != c.ledOn.Load() {
		c.ledOn.Store(shouldBeOn)
		c.dev.EmitLog(c.f, hdc.LogLevelDebug, ledLogMessage(shouldBeOn))
	}
}

// PressButton simulates the demo button, emitting ButtonEvent exactly when
// the reported state differs from the previous call -- mirroring the
// edge-triggered check in Core_UpdateState.
func (c *Core) PressButton(pressed bool) {
	if c.button.Swap(pressed) == pressed {
		return
	}
	state := byte(0)
	if pressed {
		state = 1
	}
	c.dev.EmitEvent(c.f, EvtButton, []byte{0x42, state}, nil)
}

func (c *Core) handleReset(dev *hdc.Device, f *hdc.Feature, req []byte) {
	if len(req) != 3 {
		dev.ReplyError(hdc.ExcInvalidArgs, req)
		return
	}

	dev.ReplyVoid(req)
	dev.FeatureStateTransition(f, CoreStateOff)
	dev.Flush()

	if c.onReset != nil {
		c.onReset()
	}
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}

func le32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

func ledLogMessage(on bool) string {
	if on {
		return "LED on"
	}
	return "LED off"
}

// runtimeDeviceID derives a stable-per-host identifier from the hostname,
// standing in for HAL_GetDEVID() on hardware that has no silicon id to
// read.
func runtimeDeviceID() uint32 {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "gohdc-device"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return h.Sum32()
}
