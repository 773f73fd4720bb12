package engine

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/oscio"
	"github.com/gherlein/oscmix/pkg/sysex"
	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/require"
)

// newTestEngine builds an Engine with a fake MIDI writer (no real
// driver) and a real OSC writer pointed at an unused port; outbound
// sends are best-effort and not asserted against in these tests.
func newTestEngine(t *testing.T, written *[][]byte) *Engine {
	t.Helper()
	logger := log.New(io.Discard)
	e := &Engine{
		descriptor:    devicemodel.UCX2,
		tree:          BuildTree(devicemodel.UCX2),
		osc:           oscio.NewWriter("127.0.0.1", 0),
		logger:        logger,
		metersEnabled: true,
	}
	e.model = devicemodel.NewModel(devicemodel.UCX2, func(frame []byte) error {
		*written = append(*written, frame)
		return nil
	})
	e.registerObservers()
	return e
}

func oscMessage(address string, args ...interface{}) *osc.Message {
	msg := osc.NewMessage(address)
	for _, a := range args {
		msg.Append(a)
	}
	return msg
}

// Scenario 1 (spec.md §8): /input/1/mute ,i 1 -> MIDI out framing a
// register write (0x0108, 0x0001).
func TestHappyPathSetMute(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/input/1/mute", int32(1)))

	require.Len(t, written, 1)
	parsed, outcome := sysex.ParseFrame(written[0])
	require.Equal(t, sysex.OK, outcome)
	words, outcome := sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, sysex.OK, outcome)
	require.Len(t, words, 1)
	require.Equal(t, uint16(0x0108), words[0].Addr)
	require.Equal(t, uint16(0x0001), words[0].Value)
}

// Scenario 3 (spec.md §8): /mix/3/input/5 ,f -6.0 writes (reg, -60)
// high bit clear, followed by the cell's centered pan write;
// /mix/3/input/5/pan ,i 50 writes reg+1 = 50|0x8000.
func TestMixerDBAndPan(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/mix/3/input/5", float32(-6.0)))
	require.Len(t, written, 2)
	parsed, _ := sysex.ParseFrame(written[0])
	words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, mixerVolumeRegister(2, 4), words[0].Addr)
	require.Equal(t, uint16(0x7FC4) /* -60 as 15-bit two's complement */, words[0].Value)
	require.False(t, words[0].Value&0x8000 != 0)

	written = nil
	e.handleMessage(oscMessage("/mix/3/input/5/pan", int32(50)))
	require.Len(t, written, 1)
	parsed, _ = sysex.ParseFrame(written[0])
	words, _ = sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, mixerVolumeRegister(2, 4)+1, words[0].Addr)
	require.Equal(t, uint16(50)|0x8000, words[0].Value)
}

// Scenario 4 (spec.md §8): /input/1/stereo ,T writes both channel 1
// and channel 2's stereo register to 1.
func TestStereoLinkWritesBothChannels(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/input/1/stereo", true))
	require.Len(t, written, 2)

	seen := map[uint16]uint16{}
	for _, f := range written {
		parsed, _ := sysex.ParseFrame(f)
		words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
		seen[words[0].Addr] = words[0].Value
	}
	require.Equal(t, uint16(1), seen[registerForChannel(InputStereoBase, 0)])
	require.Equal(t, uint16(1), seen[registerForChannel(InputStereoBase, 1)])
}

// Scenario 6 (spec.md §8): unknown address -> no MIDI traffic, one
// /error.
func TestUnknownAddressEmitsErrorNoMIDI(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/does/not/exist", int32(1)))
	require.Len(t, written, 0)
	require.Error(t, e.model.LastError())
}

// spec.md §8 boundary: an out-of-range input gain is rejected outright
// (dropped, /error emitted), not clamped to the channel's max.
func TestInputGainRangeDiffersByMicVsLine(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	// Channel 1 is a mic input on UCX2 (0..75 dB range); in-range.
	e.handleMessage(oscMessage("/input/1/gain", float32(70)))
	require.Len(t, written, 1)
	parsed, _ := sysex.ParseFrame(written[0])
	words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, uint16(700), words[0].Value)

	// 80 dB exceeds the mic channel's 75 dB max: rejected, no MIDI write.
	written = nil
	e.handleMessage(oscMessage("/input/1/gain", float32(80)))
	require.Len(t, written, 0)

	// Channel 3 is a line input on UCX2 (0..24 dB range); 25 is rejected,
	// not clamped down to 24 (spec.md §8 boundary).
	written = nil
	e.handleMessage(oscMessage("/input/3/gain", float32(25)))
	require.Len(t, written, 0)
}

func TestHiZRejectedWithoutCapability(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	// Channel 3 (Line 3) on UCX2 has no HIZ flag.
	e.handleMessage(oscMessage("/input/3/hiz", int32(1)))
	require.Len(t, written, 0)
}

// Scenario 1's echo-back half (spec.md §8): after the local write, the
// device's own echo of the same cell must still update Shadow (no
// observer is left unwired between the engine's model and the OSC
// layer).
func TestMuteEchoUpdatesShadowAfterLocalWrite(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/input/1/mute", int32(1)))
	require.Len(t, written, 1)

	parsed, _ := sysex.ParseFrame(written[0])
	words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
	e.model.ApplyRegisterWord(words[0])

	require.True(t, e.model.Shadow().Inputs[0].Mute)
}

// spec.md §6: /system/samplerate accepts inbound writes (direction
// "both"); a supported rate writes the matching table index, and an
// unsupported rate is rejected rather than silently rounded.
func TestSampleRateInboundWritesTableIndex(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.handleMessage(oscMessage("/system/samplerate", int32(48000)))
	require.Len(t, written, 1)
	parsed, _ := sysex.ParseFrame(written[0])
	words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, SampleRateReg, words[0].Addr)
	require.Equal(t, uint16(2), words[0].Value) // index 2 -> 48000 Hz

	written = nil
	e.handleMessage(oscMessage("/system/samplerate", int32(12345)))
	require.Len(t, written, 0)
}

// spec.md §4.5 "(a) if meters are enabled, requests level updates":
// the periodic tick must issue a level-update request while metering
// is on, and do nothing when it's off.
func TestHousekeepRequestsLevelsWhenMetersEnabled(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	e.housekeep()
	require.Len(t, written, 1)
	parsed, _ := sysex.ParseFrame(written[0])
	words, _ := sysex.DecodeRegisterPayload(parsed.Payload)
	require.Equal(t, LevelRequestReg, words[0].Addr)

	written = nil
	e.metersEnabled = false
	e.housekeep()
	require.Len(t, written, 0)
}

func TestRefreshSilenceThenDone(t *testing.T) {
	var written [][]byte
	e := newTestEngine(t, &written)

	var refreshDone int
	e.model.Observers().Register(devicemodel.ObserveDSP, func(ev devicemodel.Event) {
		if ev.Index == -1 {
			refreshDone++
		}
	})

	e.handleMessage(oscMessage("/refresh"))
	require.Len(t, written, 1) // the magic refresh write
	require.True(t, e.model.Refreshing())

	for i := 0; i < 200; i++ {
		w := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(0x3E80, uint16(i%9)))
		e.model.ApplyRegisterWord(w)
	}
	require.Equal(t, 0, refreshDone)

	done := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(sysex.RefreshDoneAddr, 1))
	e.model.ApplyRegisterWord(done)
	require.Equal(t, 1, refreshDone)
	require.False(t, e.model.Refreshing())
}
