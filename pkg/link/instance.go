package link

// PacketHandler delivers one reconstructed, CRC-valid payload to the
// application. It is invoked synchronously from within Task, on the same
// goroutine that consumed the closing delimiter, and must not call back into
// the Instance that invoked it (§5).
type PacketHandler func(payload []byte)

// Instance is the caller-owned aggregate described in §3: hardware
// transport, application callback, configuration, and all runtime state.
// Its size is fixed once constructed — no field is a map, channel, or
// pointer into driver-owned heap memory — so a caller may place it in
// static storage. Every operation on a given Instance must be externally
// serialized by the caller (§5); the driver holds no internal lock.
type Instance struct {
	transport Transport
	app       PacketHandler
	cfg       Config

	txState frameState
	txSize  int
	txSent  int

	rxState frameState
	rxSize  int

	sofCount  uint32
	rxPackets uint32
	txPackets uint32

	canIDTx uint32
	canIDRx uint32
}

// State is a snapshot of an Instance's runtime counters and cursors, copied
// out by GetState so callers can observe progress without reaching into
// driver-internal fields.
type State struct {
	TxState   string
	TxSize    int
	TxSent    int
	RxState   string
	RxSize    int
	SOFCount  uint32
	RxPackets uint32
	TxPackets uint32
	CANIDTx   uint32
	CANIDRx   uint32
}

// Init copies hw, app and cfg into the instance and zeroes its runtime
// state, discarding whatever was there before (reinitialization is
// idempotent). Preconditions on cfg are assertions, not runtime errors: a
// caller that supplies a zero PayloadMax or mis-sized buffers has a
// programming error, and Init panics rather than returning a code for it,
// matching §7's "assertions are fatal" rule.
func (inst *Instance) Init(transport Transport, app PacketHandler, cfg Config) {
	if transport == nil {
		panic("link: transport must not be nil")
	}
	if !cfg.valid() {
		panic("link: invalid config: payload_max must be positive and buffers must be payload_max+2 bytes")
	}
	*inst = Instance{
		transport: transport,
		app:       app,
		cfg:       cfg,
		txState:   stateDelimiter,
		rxState:   stateDelimiter,
	}
}

// Deinit zeros the whole instance. Calling Deinit on an already-deinitialized
// instance is legal and leaves it in the same zeroed state.
func (inst *Instance) Deinit() {
	*inst = Instance{}
}

// IsInit reports whether the instance has been initialized: payload_max != 0
// is the defining condition (§3).
func (inst *Instance) IsInit() bool {
	return inst.cfg.PayloadMax != 0
}

// GetState copies the instance's runtime state out for inspection.
func (inst *Instance) GetState() State {
	return State{
		TxState:   inst.txState.String(),
		TxSize:    inst.txSize,
		TxSent:    inst.txSent,
		RxState:   inst.rxState.String(),
		RxSize:    inst.rxSize,
		SOFCount:  inst.sofCount,
		RxPackets: inst.rxPackets,
		TxPackets: inst.txPackets,
		CANIDTx:   inst.canIDTx,
		CANIDRx:   inst.canIDRx,
	}
}

// Submit queues payload for transmission over the UART variant (§6). It
// fails with TxOverflow, without mutating any state, when payload exceeds
// PayloadMax or a prior submission is still in flight.
func (inst *Instance) Submit(payload []byte) error {
	return inst.submit(payload)
}

// SubmitCAN queues payload for transmission over the CAN variant and records
// the outbound identifier it should be sent under (§6). canIDTx is only
// applied once the payload itself has been accepted.
func (inst *Instance) SubmitCAN(payload []byte, canIDTx uint32) error {
	if err := inst.submit(payload); err != nil {
		return err
	}
	inst.canIDTx = canIDTx
	return nil
}

func (inst *Instance) submit(payload []byte) error {
	if inst.txSize != 0 {
		return TxOverflow
	}
	if len(payload) == 0 || len(payload) > inst.cfg.PayloadMax {
		return TxOverflow
	}
	n := copy(inst.cfg.TxBuf, payload)
	crc := CRC16(payload)
	inst.cfg.TxBuf[n] = byte(crc)
	inst.cfg.TxBuf[n+1] = byte(crc >> 8)
	inst.txSize = n + 2
	inst.txSent = 0
	return nil
}

// SetCANIDRx installs the inbound CAN identifier filter (§6). Meaningless
// for a UART-backed instance, but harmless to call.
func (inst *Instance) SetCANIDRx(canIDRx uint32) {
	inst.canIDRx = canIDRx
}

// Task performs at most one transmit step and at most one receive step
// (§4.6). It never blocks: if neither the hardware's tx-available nor
// rx-ready predicate is satisfied, it returns immediately. Hardware errors
// are out of scope for the core (§4.8, §7): TxByte/RxByte/TxFrame/RxFrame
// may fail, but Task itself reports no value beyond progress, so any error
// is dropped here rather than retried or surfaced — adapters that want to
// observe their own I/O failures do so on their own terms (logging, status
// fields), not through this return path.
func (inst *Instance) Task() {
	if inst.txSize != 0 && inst.transport.txAvailable() {
		_ = inst.transport.txStep(inst)
	}
	if inst.transport.rxReady() {
		_ = inst.transport.rxStep(inst)
	}
}
