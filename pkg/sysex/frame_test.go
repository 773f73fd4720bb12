package sysex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParseRegisterWriteFrame(t *testing.T) {
	frame := BuildRegisterWriteFrame(0x0108, 0x0001)
	assert.Equal(t, byte(Start), frame[0])
	assert.Equal(t, byte(End), frame[len(frame)-1])

	parsed, outcome := ParseFrame(frame)
	require.Equal(t, OK, outcome)
	assert.Equal(t, SubIDRegisters, parsed.Sub)

	words, outcome := DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, OK, outcome)
	require.Len(t, words, 1)
	assert.True(t, words[0].OK)
	assert.Equal(t, uint16(0x0108), words[0].Addr)
	assert.Equal(t, uint16(0x0001), words[0].Value)
}

func TestParseFrameRejectsBadManufacturer(t *testing.T) {
	frame := BuildRegisterWriteFrame(1, 1)
	frame[2] = 0x21 // corrupt manufacturer ID
	_, outcome := ParseFrame(frame)
	assert.Equal(t, UnknownSubID, outcome)
}

func TestParseFrameRejectsShortFrame(t *testing.T) {
	_, outcome := ParseFrame([]byte{Start, End})
	assert.Equal(t, ShortFrame, outcome)
}

func TestParseFrameRejectsOversize(t *testing.T) {
	big := make([]byte, MaxFrameSize+1)
	_, outcome := ParseFrame(big)
	assert.Equal(t, ShortFrame, outcome)
}

func TestReassemblerFindsFramesAcrossFeeds(t *testing.T) {
	var r Reassembler
	frame := BuildRegisterWriteFrame(5, 9)

	frames, warnings := r.Feed(frame[:3])
	assert.Empty(t, frames)
	assert.Empty(t, warnings)

	frames, warnings = r.Feed(frame[3:])
	require.Len(t, frames, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, frame, frames[0])
}

func TestReassemblerResyncsOnGarbagePrefix(t *testing.T) {
	var r Reassembler
	frame := BuildRegisterWriteFrame(5, 9)
	garbage := append([]byte{0x01, 0x02, 0x03}, frame...)

	frames, _ := r.Feed(garbage)
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestReassemblerDropsOversizeAndResyncs(t *testing.T) {
	var r Reassembler
	oversize := append([]byte{Start}, make([]byte, MaxFrameSize+10)...)
	good := BuildRegisterWriteFrame(1, 2)

	frames, warnings := r.Feed(append(oversize, good...))
	require.Len(t, warnings, 1)
	require.Len(t, frames, 1)
	assert.Equal(t, good, frames[0])
}
