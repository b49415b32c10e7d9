package link

import "fmt"

// Error is the driver's stable numeric error taxonomy (§6). Only Ok (nil)
// and TxOverflow are ever produced by this package; the remaining kinds are
// reserved here so hardware adapters built on top of it (pkg/serialhw,
// pkg/canhw) can report into the same namespace instead of inventing their
// own.
type Error uint32

const errBase = 1024

const (
	TxOverflow      Error = errBase + iota // submit rejected: payload too large, or prior frame still in flight
	RxOverflow                             // reserved: adapter-level receive buffer overrun
	TxHardwareError                        // reserved: adapter-level transmit failure
	RxHardwareError                        // reserved: adapter-level receive failure
	NoConnection                           // reserved: adapter-level link-down condition
	CrcError                               // reserved: adapter-level checksum failure surfaced out of band
	FrameError                             // reserved: adapter-level malformed-frame condition surfaced out of band
)

func (e Error) Error() string {
	switch e {
	case TxOverflow:
		return "link: tx overflow"
	case RxOverflow:
		return "link: rx overflow"
	case TxHardwareError:
		return "link: tx hardware error"
	case RxHardwareError:
		return "link: rx hardware error"
	case NoConnection:
		return "link: no connection"
	case CrcError:
		return "link: crc error"
	case FrameError:
		return "link: frame error"
	default:
		return fmt.Sprintf("link: error %d", uint32(e))
	}
}
