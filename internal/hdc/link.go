package hdc

// Link is the minimal capability set the core requires from the physical
// transport (spec.md §6.4). Implementations live in internal/link; the
// core never imports a concrete transport.
//
// StartRX and StartTX are expected to return immediately (asynchronous,
// interrupt/goroutine-completion driven); RXEvent/TXComplete on the
// returned *Device are how the adapter reports completion back into the
// core. AbortRX must be safe to call whether or not an RX is currently
// outstanding.
type Link interface {
	// StartRX begins receiving into buf. The adapter must eventually call
	// Device.OnRXEvent with however many bytes actually landed, whether
	// because buf filled or because the line idled.
	StartRX(buf []byte) error

	// AbortRX cancels an in-flight receive so the buffer can be reused
	// from offset 0.
	AbortRX()

	// StartTX begins transmitting buf[:n]. The adapter must eventually
	// call Device.OnTXComplete once the bytes have drained.
	StartTX(buf []byte, n int) error

	// NowMS returns a monotonic millisecond clock, used for the
	// composer's flush timeout.
	NowMS() uint64
}
