// Package redisbridge connects a link.Instance to Redis: outbound payloads
// are drained from a Redis list and submitted, inbound payloads delivered by
// the driver are published to a Redis channel.
package redisbridge

import (
	"fmt"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"

	"github.com/librescoot/mdb-link/pkg/link"
	"github.com/librescoot/mdb-link/pkg/redis"
)

// envelope is the wire shape exchanged with Redis in both directions. DedupeKey
// is derived from Payload and carried alongside it so a subscriber can
// discard a frame it has already seen without re-hashing the payload itself.
type envelope struct {
	Payload   []byte `cbor:"payload"`
	DedupeKey uint64 `cbor:"dedupe_key"`
}

func newEnvelope(payload []byte) envelope {
	return envelope{Payload: payload, DedupeKey: xxhash.Sum64(payload)}
}

// Bridge wires a *link.Instance to a Redis list (outbound submit requests)
// and a Redis pub/sub channel (inbound deliveries), mirroring the shape of
// the teacher's Redis subscribe/publish handlers but carrying opaque framed
// payloads instead of application-specific BLE commands.
type Bridge struct {
	client     *redis.Client
	inst       *link.Instance
	submitKey  string
	deliverKey string

	// canIDTx is nil for a UART-backed Instance. When set, every dequeued
	// payload is submitted via SubmitCAN under this fixed outbound
	// identifier instead of Submit, since the CAN variant requires one.
	canIDTx *uint32

	seen map[uint64]struct{}
}

// New builds a Bridge. submitListKey is the Redis list BRPOP-drained for
// outbound payloads; deliverChannel is the pub/sub channel inbound,
// CRC-valid payloads are published to.
func New(client *redis.Client, inst *link.Instance, submitListKey, deliverChannel string) *Bridge {
	return &Bridge{
		client:     client,
		inst:       inst,
		submitKey:  submitListKey,
		deliverKey: deliverChannel,
		seen:       make(map[uint64]struct{}),
	}
}

// WithCANIDTx switches the bridge to submit outbound payloads via SubmitCAN
// under the given fixed identifier, for use when the wrapped Instance is
// backed by a CAN transport.
func (b *Bridge) WithCANIDTx(canIDTx uint32) *Bridge {
	b.canIDTx = &canIDTx
	return b
}

// OnDelivered is a link.PacketHandler that CBOR-encodes the payload into an
// envelope and publishes it. Duplicate payloads (matching DedupeKey already
// seen) are published once and then skipped, since a flaky link can redeliver
// a retransmitted frame the application already has.
func (b *Bridge) OnDelivered(payload []byte) {
	env := newEnvelope(payload)
	if _, dup := b.seen[env.DedupeKey]; dup {
		return
	}
	b.seen[env.DedupeKey] = struct{}{}

	encoded, err := cbor.Marshal(env)
	if err != nil {
		log.Printf("redisbridge: failed to encode envelope: %v", err)
		return
	}
	if err := b.client.Publish(b.deliverKey, string(encoded)); err != nil {
		log.Printf("redisbridge: failed to publish to %s: %v", b.deliverKey, err)
	}
}

// FetchSubmitRequest blocks up to timeout for one outbound payload on the
// submit list and, if one arrives, decodes its envelope and returns the
// payload. A nil payload with a nil error means the pop timed out without a
// request arriving. Unlike Submit, this only talks to Redis — it never
// touches the wrapped Instance — so it is safe to run on its own goroutine,
// decoupled from whichever goroutine drives Instance.Task.
func (b *Bridge) FetchSubmitRequest(timeout time.Duration) ([]byte, error) {
	result, err := b.client.BRPop(timeout, b.submitKey)
	if err != nil {
		return nil, fmt.Errorf("redisbridge: submit queue pop failed: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	var env envelope
	if err := cbor.Unmarshal([]byte(result[1]), &env); err != nil {
		return nil, fmt.Errorf("redisbridge: failed to decode submit envelope: %w", err)
	}
	return env.Payload, nil
}

// Submit hands payload to the wrapped Instance, via SubmitCAN under the
// fixed outbound identifier set by WithCANIDTx, or Submit otherwise. Per §5,
// every call on a given Instance must be externally serialized against
// Instance.Task; callers must invoke Submit only from the same goroutine
// that drives Task, never concurrently with it.
func (b *Bridge) Submit(payload []byte) error {
	var err error
	if b.canIDTx != nil {
		err = b.inst.SubmitCAN(payload, *b.canIDTx)
	} else {
		err = b.inst.Submit(payload)
	}
	if err != nil {
		return fmt.Errorf("redisbridge: submit rejected: %w", err)
	}
	return nil
}

// Enqueue encodes payload as a submit-request envelope and LPUSHes it onto
// the submit list, the producer-side counterpart to FetchSubmitRequest. It
// is used by callers outside the process that owns the Instance — they
// cannot call Submit directly, so they hand the payload to Redis instead.
func Enqueue(client *redis.Client, submitListKey string, payload []byte) error {
	env := newEnvelope(payload)
	encoded, err := cbor.Marshal(env)
	if err != nil {
		return fmt.Errorf("redisbridge: failed to encode envelope: %w", err)
	}
	return client.LPush(submitListKey, string(encoded))
}
