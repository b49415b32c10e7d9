// Package serialhw implements link.UARTHardware over a real TTY using
// go.bug.st/serial, the teacher repository's direct serial dependency.
package serialhw

import (
	"fmt"
	"log"

	"go.bug.st/serial"

	"github.com/librescoot/mdb-link/pkg/link"
)

// UART is a concrete link.UARTHardware backed by an open serial port. A
// background goroutine continuously pulls single bytes off the wire into a
// small buffered channel (mirroring the teacher's usock.readLoop), so
// RxReady/RxByte never block the caller's task loop; TxByte writes straight
// through since go.bug.st/serial's Write on an already-open port does not
// itself need buffering.
type UART struct {
	port serial.Port

	rx     chan byte
	rxErr  chan error
	closed chan struct{}
}

var _ link.UARTHardware = (*UART)(nil)

// Open opens devicePath at baudRate and starts the background read loop.
func Open(devicePath string, baudRate int) (*UART, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(devicePath, mode)
	if err != nil {
		return nil, fmt.Errorf("serialhw: failed to open %s: %v", devicePath, err)
	}

	u := &UART{
		port:   port,
		rx:     make(chan byte, 256),
		rxErr:  make(chan error, 1),
		closed: make(chan struct{}),
	}
	go u.readLoop()

	return u, nil
}

func (u *UART) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := u.port.Read(buf)
		if err != nil {
			select {
			case u.rxErr <- fmt.Errorf("serialhw: read error: %v", err):
			default:
			}
			return
		}
		if n == 0 {
			continue
		}
		select {
		case u.rx <- buf[0]:
		case <-u.closed:
			return
		}
	}
}

// TxAvailable always reports true: writes to an open serial port are
// synchronous and the spec's task pump only ever asks for one byte at a
// time.
func (u *UART) TxAvailable() bool { return true }

// RxReady reports whether the background read loop has at least one
// buffered byte waiting to be consumed. A pending read error from that loop
// is consumed and logged, and reported as false.
func (u *UART) RxReady() bool {
	select {
	case err := <-u.rxErr:
		log.Printf("serialhw: %v", err)
		return false
	default:
		return len(u.rx) > 0
	}
}

// TxByte writes a single byte to the serial port.
func (u *UART) TxByte(b byte) error {
	if _, err := u.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("serialhw: write error: %v", err)
	}
	return nil
}

// RxByte returns the next buffered byte. Callers must only invoke it after
// RxReady reported true.
func (u *UART) RxByte() (byte, error) {
	select {
	case b := <-u.rx:
		return b, nil
	default:
		return 0, fmt.Errorf("serialhw: RxByte called with nothing buffered")
	}
}

// Close stops the read loop and closes the underlying port.
func (u *UART) Close() error {
	close(u.closed)
	return u.port.Close()
}
