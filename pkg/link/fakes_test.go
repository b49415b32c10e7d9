package link

// fakeUART is a minimal in-memory UARTHardware: bytes written via TxByte
// accumulate in out; bytes queued in in are handed back one at a time via
// RxByte, in order.
type fakeUART struct {
	out []byte
	in  []byte
	pos int
}

func (f *fakeUART) TxAvailable() bool { return true }
func (f *fakeUART) RxReady() bool     { return f.pos < len(f.in) }

func (f *fakeUART) TxByte(b byte) error {
	f.out = append(f.out, b)
	return nil
}

func (f *fakeUART) RxByte() (byte, error) {
	b := f.in[f.pos]
	f.pos++
	return b, nil
}

// fakeCAN is a minimal in-memory CANHardware: each TxFrame call is recorded
// verbatim (identifier and payload), and rxQueue supplies frames back to the
// decoder one per RxFrame call; frames whose identifier differs from
// idFilter are consumed and skipped on the way to the next match.
type fakeCAN struct {
	txFrames [][]byte
	txIDs    []uint32

	rxQueue []fakeCANFrame
	rxIdx   int
}

type fakeCANFrame struct {
	id   uint32
	data []byte
}

func (f *fakeCAN) TxAvailable() bool { return true }
func (f *fakeCAN) RxReady() bool     { return f.rxIdx < len(f.rxQueue) }

func (f *fakeCAN) TxFrame(canID uint32, data []byte) error {
	cp := append([]byte(nil), data...)
	f.txFrames = append(f.txFrames, cp)
	f.txIDs = append(f.txIDs, canID)
	return nil
}

func (f *fakeCAN) RxFrame(idFilter uint32) ([]byte, bool, error) {
	for f.rxIdx < len(f.rxQueue) {
		fr := f.rxQueue[f.rxIdx]
		f.rxIdx++
		if fr.id == idFilter {
			return fr.data, true, nil
		}
	}
	return nil, false, nil
}

func newInstance(payloadMax int, tr Transport, handler PacketHandler) *Instance {
	inst := &Instance{}
	inst.Init(tr, handler, Config{
		PayloadMax: payloadMax,
		TxBuf:      make([]byte, payloadMax+2),
		RxBuf:      make([]byte, payloadMax+2),
	})
	return inst
}

// pumpUntilTxPackets drives Task until txPackets reaches want or iters is
// exhausted (whichever comes first), returning the final count.
func pumpUntilTxPackets(inst *Instance, want uint32, iters int) uint32 {
	for i := 0; i < iters && inst.GetState().TxPackets < want; i++ {
		inst.Task()
	}
	return inst.GetState().TxPackets
}
