//go:build linux

package link

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// standardBaudRates maps requested baud rates to the termios B-constants a
// Linux tty driver understands. Arbitrary rates via BOTHER are out of scope;
// the firmware-facing UARTs this talks to only ever run one of these.
var standardBaudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// SerialLink is a real //go:build linux UART transport implementing
// hdc.Link. Grounded on internal/netio's raw-fd configuration pattern
// (golang.org/x/sys/unix ioctls applied directly to an open file
// descriptor), adapted from socket options to termios line discipline.
type SerialLink struct {
	file *os.File
	fd   int

	mu           sync.Mutex
	onRXEvent    func(n int)
	onTXComplete func()
}

// NewSerial opens device at the given baud rate in raw 8N1 mode, with the
// line configured to complete a receive after 100ms of idle (VMIN=1,
// VTIME=1), mirroring the idle-line-triggered RX burst the framing layer
// expects (spec.md §4.1, §6.4).
func NewSerial(device string, baudRate int) (*SerialLink, error) {
	baudConst, ok := standardBaudRates[baudRate]
	if !ok {
		return nil, fmt.Errorf("link: unsupported baud rate %d", baudRate)
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", device, err)
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("link: get termios: %w", err)
	}

	t.Iflag = 0
	t.Oflag = 0
	t.Lflag = 0
	t.Cflag = unix.CS8 | unix.CLOCAL | unix.CREAD | baudConst
	t.Ispeed = baudConst
	t.Ospeed = baudConst
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 1

	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, t); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("link: set termios: %w", err)
	}

	return &SerialLink{
		file: os.NewFile(uintptr(fd), device),
		fd:   fd,
	}, nil
}

// Bind wires the callbacks a Device registers after construction. Must be
// called before Start -- see hdc.Device.Start.
func (s *SerialLink) Bind(onRXEvent func(n int), onTXComplete func()) {
	s.mu.Lock()
	s.onRXEvent = onRXEvent
	s.onTXComplete = onTXComplete
	s.mu.Unlock()
}

// StartRX implements hdc.Link: it spawns one blocking read into buf and
// reports the result via OnRXEvent once the line idles or buf fills.
func (s *SerialLink) StartRX(buf []byte) error {
	go func() {
		n, err := s.file.Read(buf)
		if err != nil || n <= 0 {
			return
		}
		s.mu.Lock()
		cb := s.onRXEvent
		s.mu.Unlock()
		if cb != nil {
			cb(n)
		}
	}()
	return nil
}

// AbortRX implements hdc.Link. The cooperative main loop only calls this
// once an RX has already landed, so there is no in-flight read to cancel
// by the time it runs; it exists to satisfy the interface and give future
// callers a safe no-op if that assumption ever changes.
func (s *SerialLink) AbortRX() {}

// StartTX implements hdc.Link: it writes buf[:n] to completion in a
// goroutine and reports OnTXComplete once the write returns.
func (s *SerialLink) StartTX(buf []byte, n int) error {
	go func() {
		written := 0
		for written < n {
			m, err := s.file.Write(buf[written:n])
			if err != nil {
				return
			}
			written += m
		}
		s.mu.Lock()
		cb := s.onTXComplete
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}()
	return nil
}

// NowMS implements hdc.Link.
func (s *SerialLink) NowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Close releases the underlying file descriptor.
func (s *SerialLink) Close() error {
	return s.file.Close()
}
