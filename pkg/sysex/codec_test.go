package sysex

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase128RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n <= 4096; n += 37 {
		b := make([]byte, n)
		rng.Read(b)
		got := DecodeBase128(EncodeBase128(b))
		require.Equal(t, b, got, "length %d", n)
	}
	// exact boundary lengths
	for _, n := range []int{0, 1, 2, 3, 4, 5, 8, 4096} {
		b := make([]byte, n)
		rng.Read(b)
		require.Equal(t, b, DecodeBase128(EncodeBase128(b)))
	}
}

func TestBase128AllSeptetsMSBClear(t *testing.T) {
	b := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	for _, s := range EncodeBase128(b) {
		assert.Zero(t, s&0x80)
	}
}

func TestRegisterWordRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		addr, value uint16
	}{
		{0, 0}, {0x0108, 1}, {0x7FFF, 0xFFFF}, {1, 0}, {0x2FC0, 1},
	} {
		word := EncodeRegisterWord(tc.addr, tc.value)
		decoded := DecodeRegisterWord(word)
		require.True(t, decoded.OK)
		assert.Equal(t, tc.addr, decoded.Addr)
		assert.Equal(t, tc.value, decoded.Value)
	}
}

func TestRegisterWordParityDetectsBitFlip(t *testing.T) {
	word := EncodeRegisterWord(0x0108, 0x0001)
	for bit := uint(0); bit < 32; bit++ {
		flipped := word ^ (1 << bit)
		decoded := DecodeRegisterWord(flipped)
		if bit == 31 {
			// bit31 is itself the parity bit; flipping only it must
			// also be detected since it changes overall parity.
			assert.False(t, decoded.OK, "bit %d", bit)
			continue
		}
		assert.False(t, decoded.OK, "bit %d not detected", bit)
	}
}

func TestDecodeRegisterPayloadBadLength(t *testing.T) {
	_, outcome := DecodeRegisterPayload([]byte{1, 2, 3})
	assert.Equal(t, BadLength, outcome)
}

func TestDecodeRegisterPayloadMultipleWords(t *testing.T) {
	payload := append(EncodeRegisterPayload(1, 2), EncodeRegisterPayload(3, 4)...)
	words, outcome := DecodeRegisterPayload(payload)
	require.Equal(t, OK, outcome)
	require.Len(t, words, 2)
	assert.Equal(t, uint16(1), words[0].Addr)
	assert.Equal(t, uint16(2), words[0].Value)
	assert.Equal(t, uint16(3), words[1].Addr)
	assert.Equal(t, uint16(4), words[1].Value)
}

func TestPeakDBAndRMSDB(t *testing.T) {
	full := uint32(1<<23) << 4
	assert.InDelta(t, 0.0, PeakDB(full), 1e-9)
	assert.True(t, math.IsInf(PeakDB(0), -1))
	assert.True(t, math.IsInf(RMSDB(0, 0), -1))
}
