// Package engine is the Translation Engine and Scheduler/Dispatcher
// (spec.md §4.4, §4.5): it owns the concrete parameter tree, the
// inbound/outbound coder dispatch the tree's Kind tags name, and the
// three interleaved event sources serialized against the Device
// Model's exclusive section.
package engine

import "github.com/gherlein/oscmix/pkg/devicemodel"

// Register layout is owned by pkg/devicemodel (the Device Model needs
// it to project inbound register echoes back onto Shadow); the
// Translation Engine reuses the same constants for its outbound writes
// so the two directions never disagree. See devicemodel/registers.go.
const (
	InputGainBase     = devicemodel.InputGainBase
	InputMuteBase     = devicemodel.InputMuteBase
	Input48VBase      = devicemodel.Input48VBase
	InputHiZBase      = devicemodel.InputHiZBase
	InputStereoBase   = devicemodel.InputStereoBase
	InputRefLevelBase = devicemodel.InputRefLevelBase

	OutputVolumeBase   = devicemodel.OutputVolumeBase
	OutputMuteBase     = devicemodel.OutputMuteBase
	OutputStereoBase   = devicemodel.OutputStereoBase
	OutputRefLevelBase = devicemodel.OutputRefLevelBase
	OutputDitherBase   = devicemodel.OutputDitherBase

	MixerBase uint16 = devicemodel.MixerBase

	SampleRateReg  = devicemodel.SampleRateReg
	ClockSourceReg = devicemodel.ClockSourceReg

	DSPLoadReg    = devicemodel.DSPLoadReg
	DSPVersionReg = devicemodel.DSPVersionReg

	LevelRequestReg = devicemodel.LevelRequestReg
)

// mixerVolumeRegister returns the volume register for output bus o
// (0-based) receiving input i (0-based); the pan register is always
// the next address (spec.md §4.4 "reg+1").
func mixerVolumeRegister(o, i int) uint16 {
	return devicemodel.MixerVolumeRegister(o, i)
}
