package link

// decodeStep advances the RX state machine by consuming one wire byte
// (§4.3). Malformed input (bad escape sequence, buffer exhaustion) and CRC
// mismatch are both handled the same way: the frame in progress is dropped
// silently and the machine resets to Delimiter. There is no upstream signal
// beyond the gap this leaves between sof_count and rx_packets.
func decodeStep(inst *Instance, b byte) {
	switch inst.rxState {
	case stateDelimiter:
		if b == delimByte {
			inst.sofCount++
			inst.rxState = stateByte
		}

	case stateByte:
		switch {
		case b == escByte:
			inst.rxState = stateEncodedByte
		case b == delimByte:
			inst.closeFrame()
			inst.rxSize = 0
			inst.rxState = stateDelimiter
		case inst.rxSize == len(inst.cfg.RxBuf):
			inst.rxSize = 0
			inst.rxState = stateDelimiter
		default:
			inst.cfg.RxBuf[inst.rxSize] = b
			inst.rxSize++
		}

	case stateEncodedByte:
		var decoded byte
		switch b {
		case 0x5E:
			decoded = delimByte
		case 0x5D:
			decoded = escByte
		default:
			inst.rxSize = 0
			inst.rxState = stateDelimiter
			return
		}
		if inst.rxSize == len(inst.cfg.RxBuf) {
			inst.rxSize = 0
			inst.rxState = stateDelimiter
			return
		}
		inst.cfg.RxBuf[inst.rxSize] = decoded
		inst.rxSize++
		inst.rxState = stateByte
	}
}

// closeFrame implements the frame-close procedure (§4.3): an empty or
// CRC-only buffer (n <= 2) is discarded silently; otherwise the trailing two
// bytes are the little-endian CRC over everything before them, and a match
// delivers the payload to the registered handler. The delivered slice
// aliases cfg.RxBuf directly (no heap copy, per the no-dynamic-memory
// requirement) and is only valid for the duration of the callback, which
// runs synchronously before rxSize is reset and the buffer reused.
func (inst *Instance) closeFrame() {
	n := inst.rxSize
	if n <= 2 {
		return
	}
	payload := inst.cfg.RxBuf[:n-2]
	wantCRC := uint16(inst.cfg.RxBuf[n-2]) | uint16(inst.cfg.RxBuf[n-1])<<8
	if CRC16(payload) != wantCRC {
		return
	}
	inst.rxPackets++
	if inst.app != nil {
		inst.app(payload)
	}
}
