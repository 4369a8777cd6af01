package hdc

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ProtocolVersion is the HDC wire-protocol version string returned by the
// HdcVersion meta request (spec.md §4.6).
const ProtocolVersion = "HDC 1.0.0-alpha.12"

// FlushTimeoutMS is the default bounded wait Device.Flush applies after
// kicking a transmit (spec.md §4.2).
const FlushTimeoutMS = 100

// Config bounds the compile-time-configurable limits (spec.md §6.6).
type Config struct {
	// MaxReqMessageSize must be in [5, 254].
	MaxReqMessageSize int
	// TXBufCap must be >= MinTXCap (258).
	TXBufCap int
}

// DefaultConfig returns the configuration used when Init is called with a
// zero Config.
func DefaultConfig() Config {
	return Config{MaxReqMessageSize: 128, TXBufCap: 512}
}

func (c Config) validate() error {
	if c.MaxReqMessageSize < 5 || c.MaxReqMessageSize > 254 {
		return fmt.Errorf("hdc: MaxReqMessageSize %d out of range [5,254]", c.MaxReqMessageSize)
	}
	if c.TXBufCap < MinTXCap {
		return fmt.Errorf("hdc: TXBufCap %d below minimum %d", c.TXBufCap, MinTXCap)
	}
	return nil
}

// Metrics is the optional observability hook Device reports into. A nil
// Metrics is a safe no-op; internal/hdcmetrics provides a Prometheus
// implementation.
type Metrics interface {
	FramingError()
	PacketComposed()
	CommandDispatched(featureID, cmdID uint8)
	Exception(excID uint8)
	PropertyGet(featureID, propID uint8)
	PropertySet(featureID, propID uint8)
	EventEmitted(featureID, eventID uint8)
	StateTransition(featureID uint8, from, to uint8)
}

// CustomRouter handles request messages whose MessageType is below 0xF0
// (spec.md §4.3), i.e. application-defined message types outside the Meta/
// Echo/Command/Event scheme. It returns true if it handled the message.
type CustomRouter func(dev *Device, payload []byte) bool

// Device is the Core Orchestrator (spec.md §4.7): it owns the link handle,
// the registered Feature table, the RX buffer, and the TX composer, and
// drives the Init/Work/Flush lifecycle.
type Device struct {
	link     Link
	composer *Composer
	cfg      Config
	logger   *slog.Logger
	metrics  Metrics
	onFatal  func(error)
	router   CustomRouter

	features    []*Feature
	featureByID map[uint8]*Feature
	core        *Feature

	rxBuf      []byte
	rxComplete atomic.Bool
	bytesInRX  atomic.Int64
	rxCarry    int
}

// Option configures optional Device behavior at Init time.
type Option func(*Device)

// WithLogger sets the slog.Logger used for internal Log(WARNING) events
// and Go-level diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Device) { d.metrics = m }
}

// WithFatalHandler sets the callback invoked for descriptor-bug and link
// errors (spec.md §4.8, §7), which are unrecoverable by design.
func WithFatalHandler(f func(error)) Option {
	return func(d *Device) { d.onFatal = f }
}

// WithCustomRouter registers a handler for request MessageTypes below
//0xF0 (spec.md §4.3).
func WithCustomRouter(r CustomRouter) Option {
	return func(d *Device) { d.router = r }
}

// Init registers features and starts the first receive (spec.md §4.7).
// Exactly one feature must have id 0x00 (the Core feature), and no two
// features may share an id.
func Init(link Link, cfg Config, features []*Feature, opts ...Option) (*Device, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := &Device{
		link:        link,
		cfg:         cfg,
		logger:      slog.Default(),
		featureByID: make(map[uint8]*Feature, len(features)),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(slog.String("component", "hdc"))

	for _, f := range features {
		if _, dup := d.featureByID[f.ID]; dup {
			return nil, fmt.Errorf("%w: 0x%02X", ErrDuplicateFeatureID, f.ID)
		}
		d.featureByID[f.ID] = f
		if f.ID == 0x00 {
			d.core = f
		}
	}
	if d.core == nil {
		return nil, ErrMissingCoreFeature
	}
	d.features = features

	d.composer = NewComposer(link, cfg.TXBufCap, d.reportFatal)
	d.rxBuf = make([]byte, cfg.MaxReqMessageSize+PacketOverhead)

	return d, nil
}

// Start arms the first receive. Call it once, after the link adapter has
// been bound to this Device's OnRXEvent/OnTXComplete methods -- Init
// itself never touches the link, so implementations needing the Device
// to exist before they can route callbacks (internal/link.SerialLink,
// internal/link.Loopback) can be wired up in between.
func (d *Device) Start() {
	d.rearmRX()
}

func (d *Device) reportFatal(err error) {
	if d.onFatal != nil {
		d.onFatal(err)
		return
	}
	d.logger.Error("unrecoverable hdc error", slog.String("error", err.Error()))
}

// rearmRX starts the next receive after whatever bytes from the previous
// burst are being carried forward (rxCarry), so a packet split across two
// bursts isn't clobbered by the next StartRX.
func (d *Device) rearmRX() {
	d.rxComplete.Store(false)
	if err := d.link.StartRX(d.rxBuf[d.rxCarry:]); err != nil {
		d.reportFatal(fmt.Errorf("hdc: start rx: %w", err))
	}
}

// OnRXEvent is invoked by the link adapter when a receive burst lands
// (spec.md §6.4). size is bytes landed since the last StartRX, which
// begins after any carried-forward partial packet.
func (d *Device) OnRXEvent(size int) {
	d.bytesInRX.Store(int64(d.rxCarry + size))
	d.rxComplete.Store(true)
}

// OnTXComplete is invoked by the link adapter when an outstanding
// transmit drains (spec.md §6.4).
func (d *Device) OnTXComplete() {
	d.composer.NotifyTXComplete()
}

// Feature looks up a registered feature by id.
func (d *Device) Feature(id uint8) (*Feature, bool) {
	f, ok := d.featureByID[id]
	return f, ok
}

// Features returns the registered features in registration order.
func (d *Device) Features() []*Feature {
	return d.features
}

// Core returns the mandatory Core feature (id 0x00).
func (d *Device) Core() *Feature {
	return d.core
}

// Config returns the Device's effective configuration.
func (d *Device) Config() Config {
	return d.cfg
}

// Work drives one iteration of the cooperative main loop (spec.md §4.7):
// if a receive burst has landed, frame and dispatch it; then, whether or
// not RX work happened, give the composer a chance to start transmitting
// any pending bytes.
func (d *Device) Work() {
	if d.rxComplete.Load() {
		d.processRX()
	}
	d.composer.TryFlush()
}

func (d *Device) processRX() {
	size := int(d.bytesInRX.Load())
	window := d.rxBuf[:size]

	result := Frame(window, d.cfg.MaxReqMessageSize)

	// A !Found result whose window still has bytes left past the
	// resynchronized garbage is a genuinely partial packet (the burst
	// ended mid-packet): carry it forward instead of discarding it, so a
	// split burst still assembles into a complete request (spec.md §4.1).
	if !result.Found && size > result.FramingErrors {
		d.reportSkippedBytes(result.FramingErrors)
		copy(d.rxBuf, window[result.FramingErrors:])
		d.rxCarry = size - result.FramingErrors
		d.link.AbortRX()
		d.rearmRX()
		return
	}

	d.rxCarry = 0
	d.link.AbortRX()
	d.rearmRX()

	if result.Found {
		d.reportSkippedBytes(result.FramingErrors + (size - result.PacketEnd))
		d.dispatch(window[result.PayloadStart:result.PayloadEnd])
		return
	}
	d.reportSkippedBytes(size)
}

func (d *Device) reportSkippedBytes(n int) {
	if n <= 0 {
		return
	}
	d.logger.Warn("framing errors while parsing RX burst", slog.Int("count", n))
	if d.metrics != nil {
		for range n {
			d.metrics.FramingError()
		}
	}
}

// Flush forces any pending composed bytes out over the link, bounded by
// FlushTimeoutMS of wall-clock time (spec.md §4.2).
func (d *Device) Flush() {
	d.composer.Flush(FlushTimeoutMS)
}
