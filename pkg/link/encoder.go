package link

// encodeStep advances the TX state machine by one wire byte (§4.2). It is
// total: every call while tx_size != 0 produces a byte, never an error. The
// "source buffer" the spec describes as PAYLOAD . CRC_LO . CRC_HI is simply
// cfg.TxBuf[:tx_size], already assembled by Submit.
//
// The Byte/EncodedByte split never needs to stash the byte being escaped: in
// EncodedByte, tx_sent has not advanced past it yet, so re-reading
// cfg.TxBuf[tx_sent] yields the same raw byte the Byte state peeked at.
func encodeStep(inst *Instance) byte {
	switch inst.txState {
	case stateDelimiter:
		inst.txState = stateByte
		return delimByte

	case stateByte:
		if inst.txSent == inst.txSize {
			inst.txState = stateDelimiter
			inst.txSize = 0
			inst.txSent = 0
			inst.txPackets++
			return delimByte
		}
		b := inst.cfg.TxBuf[inst.txSent]
		if b == delimByte || b == escByte {
			inst.txState = stateEncodedByte
			return escByte
		}
		inst.txSent++
		return b

	case stateEncodedByte:
		b := inst.cfg.TxBuf[inst.txSent]
		inst.txSent++
		inst.txState = stateByte
		return b ^ escXOR

	default:
		panic("link: unreachable tx state")
	}
}
