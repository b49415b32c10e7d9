package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16ReferenceVector(t *testing.T) {
	assert.Equal(t, uint16(0x906E), CRC16([]byte("123456789")))
}

func TestCRC16EmptyInput(t *testing.T) {
	assert.Equal(t, uint16(0xFFFF)^0xFFFF, CRC16(nil))
}

func TestCRC16MatchesWireVectors(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    uint16
	}{
		{"single zero byte", []byte{0x00}, 0xF078},
		{"nine ascii digits", []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39}, 0x906E},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CRC16(tc.payload))
		})
	}
}
