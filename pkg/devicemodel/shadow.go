package devicemodel

import "github.com/gherlein/oscmix/pkg/durec"

// InputState is the shadow projection of one input channel's state
// (spec.md §3 "Shadow state").
type InputState struct {
	GainTenthDB int
	Phantom48V  bool
	HiZ         bool
	Mute        bool
	Stereo      bool
	Width       float64
	RefLevel    int
	Name        string
}

// OutputState is the shadow projection of one output channel's state.
type OutputState struct {
	VolumeTenthDB int
	Mute          bool
	Stereo        bool
	RefLevel      int
	Dither        bool
	Name          string
}

// MixerCell is one send in the mixer matrix: output O's send of input
// I, expressed in the wire units (spec.md §3 "mixer matrix").
type MixerCell struct {
	VolumeTenthDB int
	Pan           int
}

// DSPState is the shadow projection of DSP-wide, read-only state.
type DSPState struct {
	FirmwareVersion int
	LoadPercent     int
}

// SampleRateState is the shadow projection of clocking state.
type SampleRateState struct {
	Hz          int
	ClockSource int
}

// Shadow is the complete set of higher-level projections derived from
// register cells (spec.md §3). It is created at device-attach and
// mutated only by the Model in response to decoded register updates
// or explicit set-value calls.
type Shadow struct {
	Inputs      []InputState
	Outputs     []OutputState
	Mixer       [][]MixerCell // Mixer[output][input]
	DURec       durec.Status
	DSP         DSPState
	SampleRate  SampleRateState
}

// NewShadow allocates a Shadow sized for descriptor d, with every
// mixer send initialised to its wire-unit zero: VolumeTenthDB 0 (0 dB,
// unity) and pan 0 (centered). A muted send must be set explicitly to
// the -infinity sentinel (mixer.NegativeInfinityTenthDB).
func NewShadow(d Descriptor) *Shadow {
	s := &Shadow{
		Inputs:  make([]InputState, len(d.Inputs)),
		Outputs: make([]OutputState, len(d.Outputs)),
		Mixer:   make([][]MixerCell, d.MixerSends),
	}
	for o := range s.Mixer {
		s.Mixer[o] = make([]MixerCell, len(d.Inputs))
	}
	for i := range s.Inputs {
		s.Inputs[i].Width = 1
	}
	return s
}
