//go:build linux

// Package canhw implements link.CANHardware over a Linux SocketCAN
// interface.
package canhw

import (
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/librescoot/mdb-link/pkg/link"
)

// frame is the kernel's struct can_frame layout: a 32-bit ID, a length byte,
// three padding bytes, and an 8-byte data payload.
type frame struct {
	id   uint32
	len  uint8
	_    [3]byte
	data [8]byte
}

// CAN identifiers here are 29-bit (extended). SocketCAN packs the
// extended-frame marker into bit 31 of can_frame.id alongside the 29-bit
// value itself (linux/can.h: CAN_EFF_FLAG, CAN_EFF_MASK); every identifier
// this package sends or filters on is treated as extended.
const (
	canEFFFlag uint32 = 0x80000000
	canEFFMask uint32 = 0x1FFFFFFF
)

const frameSize = int(unsafe.Sizeof(frame{}))

// CAN is a concrete link.CANHardware backed by a bound CAN_RAW socket.
// RxReady polls with a zero timeout and RxFrame reads only after RxReady has
// seen a pending frame, so neither stalls the caller's cooperative task
// loop; the task model has no background
// goroutine, unlike the ring-buffer sweep the wider CAN stacks in the pack
// use for high-throughput busses.
type CAN struct {
	fd int
}

var _ link.CANHardware = (*CAN)(nil)

// Open binds a CAN_RAW socket to the named interface (e.g. "can0").
func Open(ifaceName string) (*CAN, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("canhw: %v", err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canhw: failed to create socket: %v", err)
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canhw: failed to bind to %s: %v", ifaceName, err)
	}

	return &CAN{fd: fd}, nil
}

// TxAvailable always reports true: a single non-blocking write of a CAN
// frame either succeeds immediately or returns an error, there is no
// separate readiness signal to poll.
func (c *CAN) TxAvailable() bool { return true }

// TxFrame sends one CAN data frame carrying up to 8 bytes.
func (c *CAN) TxFrame(id uint32, data []byte) error {
	if len(data) > 8 {
		return fmt.Errorf("canhw: frame payload too large: %d bytes", len(data))
	}

	var f frame
	f.id = (id & canEFFMask) | canEFFFlag
	f.len = uint8(len(data))
	copy(f.data[:], data)

	raw := (*(*[unsafe.Sizeof(frame{})]byte)(unsafe.Pointer(&f)))[:]
	n, err := unix.Write(c.fd, raw)
	if err != nil {
		return fmt.Errorf("canhw: write error: %v", err)
	}
	if n != frameSize {
		return fmt.Errorf("canhw: short write: wrote %d of %d bytes", n, frameSize)
	}
	return nil
}

// RxReady polls the socket for a pending frame without consuming it.
func (c *CAN) RxReady() bool {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	return fds[0].Revents&unix.POLLIN != 0
}

// RxFrame reads the next pending frame and reports ok=false, without error,
// when its identifier does not match idFilter. Callers must only invoke it
// after RxReady reported true.
func (c *CAN) RxFrame(idFilter uint32) (data []byte, ok bool, err error) {
	raw := make([]byte, frameSize)
	n, err := unix.Read(c.fd, raw)
	if err != nil {
		return nil, false, fmt.Errorf("canhw: read error: %v", err)
	}
	if n != frameSize {
		return nil, false, fmt.Errorf("canhw: short read: got %d of %d bytes", n, frameSize)
	}

	f := (*frame)(unsafe.Pointer(&raw[0]))
	if f.id&canEFFMask != idFilter&canEFFMask {
		return nil, false, nil
	}

	length := f.len
	if length > 8 {
		length = 8
	}
	out := make([]byte, length)
	copy(out, f.data[:length])
	return out, true, nil
}

// Close releases the underlying socket.
func (c *CAN) Close() error {
	return unix.Close(c.fd)
}
