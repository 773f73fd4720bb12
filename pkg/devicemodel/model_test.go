package devicemodel

import (
	"testing"

	"github.com/gherlein/oscmix/pkg/sysex"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) (*Model, *[][]byte) {
	t.Helper()
	var written [][]byte
	m := NewModel(UCX2, func(frame []byte) error {
		written = append(written, frame)
		return nil
	})
	return m, &written
}

func TestWriteRegisterFramesAndSpeculates(t *testing.T) {
	m, written := testModel(t)

	err := m.WriteRegister(0x0108, 0x0001)
	require.NoError(t, err)
	require.Len(t, *written, 1)

	v, ok := m.Cell(0x0108)
	require.True(t, ok)
	require.Equal(t, uint16(0x0001), v)

	// The Shadow projection for channel 1's mute must reflect the write
	// immediately, without waiting for the device's own echo (spec.md
	// §4.3 "speculatively updates the shadow").
	require.True(t, m.Shadow().Inputs[0].Mute)
}

// Every register class the Parameter Tree defines must have a Shadow
// projection and fan out to its observer category (spec.md §4.3
// "Register observation").
func TestRegisterEchoProjectsEveryClassOntoShadow(t *testing.T) {
	m, _ := testModel(t)

	var inputEvents, outputEvents, mixerEvents, sampleRateEvents, dspEvents []Event
	m.Observers().Register(ObserveInput, func(ev Event) { inputEvents = append(inputEvents, ev) })
	m.Observers().Register(ObserveOutput, func(ev Event) { outputEvents = append(outputEvents, ev) })
	m.Observers().Register(ObserveMixer, func(ev Event) { mixerEvents = append(mixerEvents, ev) })
	m.Observers().Register(ObserveSampleRate, func(ev Event) { sampleRateEvents = append(sampleRateEvents, ev) })
	m.Observers().Register(ObserveDSP, func(ev Event) { dspEvents = append(dspEvents, ev) })

	apply := func(addr, value uint16) {
		m.ApplyRegisterWord(sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(addr, value)))
	}

	apply(RegisterForChannel(InputGainBase, 0), 300)
	require.Equal(t, 300, m.Shadow().Inputs[0].GainTenthDB)

	apply(RegisterForChannel(Input48VBase, 0), 1)
	require.True(t, m.Shadow().Inputs[0].Phantom48V)

	apply(RegisterForChannel(InputHiZBase, 0), 1)
	require.True(t, m.Shadow().Inputs[0].HiZ)

	apply(RegisterForChannel(InputStereoBase, 0), 1)
	require.True(t, m.Shadow().Inputs[0].Stereo)

	apply(RegisterForChannel(InputRefLevelBase, 0), 2)
	require.Equal(t, 2, m.Shadow().Inputs[0].RefLevel)

	apply(RegisterForChannel(OutputVolumeBase, 0), uint16(0xFFC4)) // -60 as int16
	require.Equal(t, -60, m.Shadow().Outputs[0].VolumeTenthDB)

	apply(RegisterForChannel(OutputMuteBase, 0), 1)
	require.True(t, m.Shadow().Outputs[0].Mute)

	apply(RegisterForChannel(OutputStereoBase, 0), 1)
	require.True(t, m.Shadow().Outputs[0].Stereo)

	apply(RegisterForChannel(OutputRefLevelBase, 0), 1)
	require.Equal(t, 1, m.Shadow().Outputs[0].RefLevel)

	apply(RegisterForChannel(OutputDitherBase, 0), 1)
	require.True(t, m.Shadow().Outputs[0].Dither)

	apply(MixerVolumeRegister(2, 4), uint16(0x7FC4)) // -60 as 15-bit two's complement, bit15 clear
	require.Equal(t, -60, m.Shadow().Mixer[2][4].VolumeTenthDB)

	apply(MixerVolumeRegister(2, 4)+1, uint16(50)|0x8000)
	require.Equal(t, 50, m.Shadow().Mixer[2][4].Pan)

	apply(SampleRateReg, 2) // index 2 -> 48000 Hz
	require.Equal(t, 48000, m.Shadow().SampleRate.Hz)

	apply(ClockSourceReg, 1)
	require.Equal(t, 1, m.Shadow().SampleRate.ClockSource)

	apply(DSPLoadReg, 42)
	require.Equal(t, 42, m.Shadow().DSP.LoadPercent)

	apply(DSPVersionReg, 300)
	require.Equal(t, 300, m.Shadow().DSP.FirmwareVersion)

	require.NotEmpty(t, inputEvents)
	require.NotEmpty(t, outputEvents)
	require.NotEmpty(t, mixerEvents)
	require.NotEmpty(t, sampleRateEvents)
	require.NotEmpty(t, dspEvents)

	require.Equal(t, 2, mixerEvents[0].Index)
	require.Equal(t, 4, mixerEvents[0].Index2)
}

// spec.md §8 scenario 1's echo-back half: feeding the device's own
// echo of a register the engine just wrote must still notify, the
// same as any other inbound register update.
func TestMuteEchoNotifiesInputObserver(t *testing.T) {
	m, _ := testModel(t)

	var gotMute bool
	var gotField string
	m.Observers().Register(ObserveInput, func(ev Event) {
		gotField = ev.Field
		gotMute = m.Shadow().Inputs[ev.Index].Mute
	})

	require.NoError(t, m.WriteRegister(0x0108, 1))
	word := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(0x0108, 1))
	m.ApplyRegisterWord(word)

	require.Equal(t, "mute", gotField)
	require.True(t, gotMute)
}

// spec.md §8 scenario 2: after the refresh sentinel, every register
// touched during the refresh whose final value differs from the wire
// default (0) replays exactly one notification.
func TestRefreshDoneReplaysDiffsFromDefault(t *testing.T) {
	m, _ := testModel(t)

	var muteNotified int
	m.Observers().Register(ObserveInput, func(ev Event) {
		if ev.Field == "mute" {
			muteNotified++
		}
	})

	require.NoError(t, m.StartRefresh())

	// Channel 1 mute register changes to 1 (differs from default) during
	// the refresh; channel 2 mute register is explicitly re-confirmed at
	// its default 0 and must not be replayed.
	m.ApplyRegisterWord(sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(RegisterForChannel(InputMuteBase, 0), 1)))
	m.ApplyRegisterWord(sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(RegisterForChannel(InputMuteBase, 1), 0)))
	require.Equal(t, 0, muteNotified, "no notifications during refresh")

	done := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(sysex.RefreshDoneAddr, 1))
	m.ApplyRegisterWord(done)

	require.Equal(t, 1, muteNotified)
	require.True(t, m.Shadow().Inputs[0].Mute)
	require.False(t, m.Shadow().Inputs[1].Mute)
}

func TestApplyRegisterWordDiffGate(t *testing.T) {
	m, _ := testModel(t)

	var notified int
	m.Observers().Register(ObserveDURec, func(Event) { notified++ })

	word := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(0x3E80, 5)) // durec RegStatus
	m.ApplyRegisterWord(word)
	require.Equal(t, 1, notified)

	// Same value again: diff gate drops it.
	m.ApplyRegisterWord(word)
	require.Equal(t, 1, notified)

	word2 := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(0x3E80, 6))
	m.ApplyRegisterWord(word2)
	require.Equal(t, 2, notified)
}

func TestApplyRegisterWordRejectsBadParity(t *testing.T) {
	m, _ := testModel(t)

	var notified int
	m.Observers().Register(ObserveDURec, func(Event) { notified++ })

	good := sysex.EncodeRegisterWord(0x3E80, 5)
	bad := good ^ 1 // flip a low bit, corrupting parity
	word := sysex.DecodeRegisterWord(bad)
	require.False(t, word.OK)

	m.ApplyRegisterWord(word)
	require.Equal(t, 0, notified)
	_, seen := m.Cell(0x3E80)
	require.False(t, seen)
}

// Refresh silence (spec.md §8): from /refresh until the sentinel, no
// outbound observer notifications except the sentinel's own.
func TestRefreshSuppressesNotificationsUntilDone(t *testing.T) {
	m, _ := testModel(t)

	var durecNotified, dspNotified int
	m.Observers().Register(ObserveDURec, func(Event) { durecNotified++ })
	m.Observers().Register(ObserveDSP, func(Event) { dspNotified++ })

	require.NoError(t, m.StartRefresh())
	require.True(t, m.Refreshing())

	for i := 0; i < 200; i++ {
		w := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(0x3E80, uint16(i%9)))
		m.ApplyRegisterWord(w)
	}
	require.Equal(t, 0, durecNotified, "no observer notifications during refresh")

	done := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(sysex.RefreshDoneAddr, 1))
	m.ApplyRegisterWord(done)

	require.False(t, m.Refreshing())
	require.Equal(t, 1, dspNotified, "sentinel itself must notify exactly once")
}

func TestSecondRefreshWhileInFlightIsNoOp(t *testing.T) {
	m, written := testModel(t)

	require.NoError(t, m.StartRefresh())
	firstCount := len(*written)

	require.NoError(t, m.StartRefresh())
	require.Len(t, *written, firstCount, "a second /refresh while refreshing must not re-issue the magic write")
}

func TestChannelNameRoundTripsThroughRegisters(t *testing.T) {
	m, _ := testModel(t)

	words := PackName("Mic 1")
	base := InputNameRegister(0)
	for i, w := range words {
		word := sysex.DecodeRegisterWord(sysex.EncodeRegisterWord(base+uint16(i), w))
		m.ApplyRegisterWord(word)
	}

	require.Equal(t, "Mic 1", m.Shadow().Inputs[0].Name)
}
