package redisbridge

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripsThroughCBOR(t *testing.T) {
	payload := []byte("123456789")
	env := newEnvelope(payload)

	encoded, err := cbor.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, cbor.Unmarshal(encoded, &decoded))

	assert.Equal(t, payload, decoded.Payload)
	assert.Equal(t, env.DedupeKey, decoded.DedupeKey)
}

func TestDedupeKeyIsStableAndContentAddressed(t *testing.T) {
	a := newEnvelope([]byte("abc"))
	b := newEnvelope([]byte("abc"))
	c := newEnvelope([]byte("abd"))

	assert.Equal(t, a.DedupeKey, b.DedupeKey)
	assert.NotEqual(t, a.DedupeKey, c.DedupeKey)
}

func TestSeenSetRecognisesRepeatedPayload(t *testing.T) {
	b := &Bridge{seen: make(map[uint64]struct{})}

	first := newEnvelope([]byte("xyz"))
	_, dup := b.seen[first.DedupeKey]
	assert.False(t, dup)
	b.seen[first.DedupeKey] = struct{}{}

	second := newEnvelope([]byte("xyz"))
	_, dup = b.seen[second.DedupeKey]
	assert.True(t, dup)
}
