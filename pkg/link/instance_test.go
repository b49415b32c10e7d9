package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInitReflectsPayloadMax(t *testing.T) {
	var inst Instance
	assert.False(t, inst.IsInit())

	hw := &fakeUART{}
	inst.Init(NewUARTTransport(hw), nil, Config{
		PayloadMax: 16,
		TxBuf:      make([]byte, 18),
		RxBuf:      make([]byte, 18),
	})
	assert.True(t, inst.IsInit())
}

func TestDeinitIsIdempotentAndZeroes(t *testing.T) {
	hw := &fakeUART{}
	inst := newInstance(16, NewUARTTransport(hw), nil)
	require.NoError(t, inst.Submit([]byte("hi")))

	inst.Deinit()
	assert.False(t, inst.IsInit())
	first := inst.GetState()

	inst.Deinit()
	assert.False(t, inst.IsInit())
	second := inst.GetState()

	assert.Equal(t, first, second)
	assert.Equal(t, State{TxState: "Delimiter", RxState: "Delimiter"}, second)
}

func TestInitPanicsOnInvalidConfig(t *testing.T) {
	hw := &fakeUART{}
	var inst Instance
	assert.Panics(t, func() {
		inst.Init(NewUARTTransport(hw), nil, Config{PayloadMax: 0})
	})
	assert.Panics(t, func() {
		inst.Init(NewUARTTransport(hw), nil, Config{PayloadMax: 4, TxBuf: make([]byte, 4), RxBuf: make([]byte, 6)})
	})
	assert.Panics(t, func() {
		inst.Init(nil, nil, Config{PayloadMax: 4, TxBuf: make([]byte, 6), RxBuf: make([]byte, 6)})
	})
}

func TestSubmitBoundaries(t *testing.T) {
	hw := &fakeUART{}
	inst := newInstance(4, NewUARTTransport(hw), nil)

	assert.ErrorIs(t, inst.Submit(nil), TxOverflow)
	assert.NoError(t, inst.Submit([]byte{1, 2, 3, 4}))

	hw2 := &fakeUART{}
	inst2 := newInstance(4, NewUARTTransport(hw2), nil)
	assert.ErrorIs(t, inst2.Submit([]byte{1, 2, 3, 4, 5}), TxOverflow)
}

func TestSubmitRejectsWhileFrameInFlight(t *testing.T) {
	hw := &fakeUART{}
	inst := newInstance(4, NewUARTTransport(hw), nil)

	require.NoError(t, inst.Submit([]byte{1}))
	assert.ErrorIs(t, inst.Submit([]byte{2}), TxOverflow)

	pumpUntilTxPackets(inst, 1, 100)
	assert.NoError(t, inst.Submit([]byte{2}))
}

func TestCountersAreMonotonicAcrossTaskCalls(t *testing.T) {
	hw := &fakeUART{}
	inst := newInstance(8, NewUARTTransport(hw), func([]byte) {})

	require.NoError(t, inst.Submit([]byte("abc")))

	var prev State
	for i := 0; i < 50; i++ {
		s := inst.GetState()
		assert.GreaterOrEqual(t, s.SOFCount, prev.SOFCount)
		assert.GreaterOrEqual(t, s.RxPackets, prev.RxPackets)
		assert.GreaterOrEqual(t, s.TxPackets, prev.TxPackets)
		prev = s
		inst.Task()
	}
}
