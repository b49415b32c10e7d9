package link

// Hardware is the predicate half of the capability set every transport
// variant supplies (§4.4): whether the link can accept outbound data right
// now and whether inbound data is waiting. Both UARTHardware and CANHardware
// embed it; neither carries any global state, only an opaque handle owned by
// the concrete adapter.
type Hardware interface {
	TxAvailable() bool
	RxReady() bool
}

// UARTHardware is the byte-oriented transport: one wire byte per call in
// either direction.
type UARTHardware interface {
	Hardware
	TxByte(b byte) error
	RxByte() (byte, error)
}

// CANHardware is the packetized transport: up to 8 bytes per CAN frame,
// addressed by a 29-bit identifier that differs per direction. RxFrame
// reports ok=false when no frame matching idFilter is currently available
// without that being an error.
type CANHardware interface {
	Hardware
	TxFrame(canID uint32, data []byte) error
	RxFrame(idFilter uint32) (data []byte, ok bool, err error)
}

// Transport is the sum type design note 9 asks for: UART and CAN coexist as
// two concrete implementations behind one interface, so an Instance can be
// parameterized by either without compile-time mutual exclusion. Encoder and
// decoder (encoder.go, decoder.go) know nothing about which variant backs a
// given Instance.
type Transport interface {
	txAvailable() bool
	rxReady() bool
	txStep(inst *Instance) error
	rxStep(inst *Instance) error
}

type uartTransport struct {
	hw UARTHardware
}

// NewUARTTransport wraps a byte-oriented hardware adapter for use by Init.
func NewUARTTransport(hw UARTHardware) Transport {
	return &uartTransport{hw: hw}
}

func (t *uartTransport) txAvailable() bool { return t.hw.TxAvailable() }
func (t *uartTransport) rxReady() bool     { return t.hw.RxReady() }

func (t *uartTransport) txStep(inst *Instance) error {
	b := encodeStep(inst)
	return t.hw.TxByte(b)
}

func (t *uartTransport) rxStep(inst *Instance) error {
	b, err := t.hw.RxByte()
	if err != nil {
		return err
	}
	decodeStep(inst, b)
	return nil
}

type canHWTransport struct {
	hw CANHardware
}

// NewCANTransport wraps a packetized hardware adapter for use by Init.
func NewCANTransport(hw CANHardware) Transport {
	return &canHWTransport{hw: hw}
}

func (t *canHWTransport) txAvailable() bool { return t.hw.TxAvailable() }
func (t *canHWTransport) rxReady() bool     { return t.hw.RxReady() }

// txStep drains the encoder into a local 8-byte stage buffer, stopping early
// once the encoder reports idle (tx_size reaching 0), and emits a single CAN
// frame of the accumulated length (§4.4).
func (t *canHWTransport) txStep(inst *Instance) error {
	var stage [8]byte
	n := 0
	for n < len(stage) {
		stage[n] = encodeStep(inst)
		n++
		if inst.txSize == 0 {
			break
		}
	}
	return t.hw.TxFrame(inst.canIDTx, stage[:n])
}

// rxStep reads a single CAN frame addressed to this instance's inbound
// identifier and feeds each of its bytes to the decoder in order (§4.4).
func (t *canHWTransport) rxStep(inst *Instance) error {
	data, ok, err := t.hw.RxFrame(inst.canIDRx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, b := range data {
		decodeStep(inst, b)
	}
	return nil
}
