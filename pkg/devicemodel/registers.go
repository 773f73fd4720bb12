package devicemodel

// Register addressing is implementation-defined (spec.md §8 scenario 3
// explicitly permits this, provided it reproduces the worked
// examples); the layout below is chosen so the mute write in scenario
// 1 (channel 1 -> 0x0108) and the mixer addressing in scenario 3 both
// land exactly where the spec's worked examples place them. It lives
// here, rather than in the Translation Engine, because the Device
// Model needs the same addressing to project inbound register echoes
// back onto Shadow (spec.md §4.3 "Register observation"); the engine
// package reuses these constants for its outbound writes so the two
// directions never disagree. See DESIGN.md for the reconciliation.
const (
	InputGainBase     uint16 = 0x0000
	InputMuteBase     uint16 = 0x0100
	Input48VBase      uint16 = 0x0140
	InputHiZBase      uint16 = 0x0180
	InputStereoBase   uint16 = 0x01C0
	InputRefLevelBase uint16 = 0x0200

	OutputVolumeBase   uint16 = 0x0300
	OutputMuteBase     uint16 = 0x0340
	OutputStereoBase   uint16 = 0x0380
	OutputRefLevelBase uint16 = 0x03C0
	OutputDitherBase   uint16 = 0x0400

	MixerBase   uint16 = 0x1000
	mixerStride        = 64

	SampleRateReg  uint16 = 0x2000
	ClockSourceReg uint16 = 0x2004

	DSPLoadReg    uint16 = 0x2100
	DSPVersionReg uint16 = 0x2104

	// LevelRequestReg is written (value 1) each scheduler tick while
	// metering is enabled, to ask the device to stream the next batch
	// of level frames (spec.md §4.5 "(a) if meters are enabled,
	// requests level updates"); no original_source exists to confirm
	// the real protocol's request mechanism, so this register-write
	// request mirrors the one documented magic-write pattern the
	// protocol already has (RefreshMagic) rather than inventing a new
	// wire shape. See DESIGN.md.
	LevelRequestReg uint16 = 0x2108

	channelRegisterStride = 8
)

// RegisterForChannel returns the register for one of the per-channel
// bases above, at 0-based channel index (spec.md §8 scenario 1: base
// InputMuteBase, channel 0 -> 0x0108).
func RegisterForChannel(base uint16, channel int) uint16 {
	return base + uint16(channel+1)*channelRegisterStride
}

// channelFromRegister is RegisterForChannel's inverse: it reports the
// 0-based channel addr encodes relative to base, bounded to
// [0,maxChannels), or ok=false if addr doesn't fall on a channel
// boundary for this base.
func channelFromRegister(addr, base uint16, maxChannels int) (channel int, ok bool) {
	if addr <= base {
		return 0, false
	}
	offset := addr - base
	if offset%channelRegisterStride != 0 {
		return 0, false
	}
	channel = int(offset)/channelRegisterStride - 1
	if channel < 0 || channel >= maxChannels {
		return 0, false
	}
	return channel, true
}

// MixerVolumeRegister returns the volume register for output bus o
// (0-based) receiving input i (0-based); the pan register is always
// the next address (spec.md §4.4 "reg+1").
func MixerVolumeRegister(o, i int) uint16 {
	return MixerBase + uint16(o*mixerStride+i)
}

// mixerCellFromRegister is MixerVolumeRegister's inverse. Because the
// pan register for send i shares its address with the volume register
// for send i+1 (spec.md §4.4's own "(reg+1, pan|0x8000)" addressing
// has no room for a separate pan slot), the two can't be told apart
// from addr alone; the wire format's own discriminator — the value's
// high bit (spec.md §3 "never both in one 16-bit word") — resolves it.
func mixerCellFromRegister(addr, value uint16, maxOutputs, maxInputs int) (output, input int, isPan, ok bool) {
	if addr < MixerBase {
		return 0, 0, false, false
	}
	offset := int(addr - MixerBase)
	o := offset / mixerStride
	rem := offset % mixerStride
	if value&0x8000 != 0 {
		isPan = true
		input = rem - 1
	} else {
		input = rem
	}
	if o < 0 || o >= maxOutputs || input < 0 || input >= maxInputs {
		return 0, 0, false, false
	}
	return o, input, isPan, true
}
