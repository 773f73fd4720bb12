// Package devicemodel is the shadow of every addressable register on
// the attached RME interface: change-tracking, refresh orchestration,
// and observer fan-out (spec.md §4.3), plus the static device
// descriptors it is built from (spec.md §3).
package devicemodel

// CapabilityFlag names one optional feature a channel may carry.
type CapabilityFlag string

const (
	FlagGain     CapabilityFlag = "GAIN"
	Flag48V      CapabilityFlag = "48V"
	FlagRefLevel CapabilityFlag = "REFLEVEL"
	FlagHiZ      CapabilityFlag = "HIZ"
	FlagDither   CapabilityFlag = "DITHER"
)

// ChannelDescriptor names one input or output channel and the
// capability flags it carries.
type ChannelDescriptor struct {
	Name         string
	Flags        map[CapabilityFlag]bool
	Mic          bool // true if gain range is 0..75 dB (mic); false is line, 0..24 dB
}

func (c ChannelDescriptor) Has(flag CapabilityFlag) bool {
	return c.Flags[flag]
}

// Descriptor is an immutable record naming one hardware variant.
// Exactly one is active for the process lifetime (spec.md §3).
type Descriptor struct {
	Name        string
	ID          string
	Firmware    string
	Inputs      []ChannelDescriptor
	Outputs     []ChannelDescriptor
	Playback    int
	MixerSends  int // mixer channel count (number of mixer busses)
}

func flags(fs ...CapabilityFlag) map[CapabilityFlag]bool {
	m := make(map[CapabilityFlag]bool, len(fs))
	for _, f := range fs {
		m[f] = true
	}
	return m
}

func micIn(name string) ChannelDescriptor {
	return ChannelDescriptor{Name: name, Mic: true, Flags: flags(FlagGain, Flag48V, FlagRefLevel, FlagHiZ)}
}

func lineIn(name string) ChannelDescriptor {
	return ChannelDescriptor{Name: name, Mic: false, Flags: flags(FlagGain, FlagRefLevel)}
}

func digitalIn(name string) ChannelDescriptor {
	return ChannelDescriptor{Name: name, Flags: flags()}
}

func lineOut(name string) ChannelDescriptor {
	return ChannelDescriptor{Name: name, Flags: flags(FlagRefLevel, FlagDither)}
}

func digitalOut(name string) ChannelDescriptor {
	return ChannelDescriptor{Name: name, Flags: flags()}
}

// UCX2 is the Fireface UCX II descriptor.
var UCX2 = Descriptor{
	Name:     "Fireface UCX II",
	ID:       "ucx2",
	Firmware: "1.0",
	Inputs: []ChannelDescriptor{
		micIn("Mic/Line 1"), micIn("Mic/Line 2"),
		lineIn("Line 3"), lineIn("Line 4"),
		digitalIn("ADAT 1"), digitalIn("ADAT 2"), digitalIn("ADAT 3"), digitalIn("ADAT 4"),
	},
	Outputs: []ChannelDescriptor{
		lineOut("Line 1"), lineOut("Line 2"), lineOut("Line 3"), lineOut("Line 4"),
		digitalOut("ADAT 1"), digitalOut("ADAT 2"), digitalOut("ADAT 3"), digitalOut("ADAT 4"),
	},
	Playback:   8,
	MixerSends: 8,
}

// Fireface802 is the Fireface 802 descriptor.
var Fireface802 = Descriptor{
	Name:     "Fireface 802",
	ID:       "802",
	Firmware: "3.0",
	Inputs: []ChannelDescriptor{
		micIn("Mic/Line 1"), micIn("Mic/Line 2"),
		micIn("Mic/Line 3"), micIn("Mic/Line 4"),
		lineIn("Line 5"), lineIn("Line 6"), lineIn("Line 7"), lineIn("Line 8"),
		digitalIn("ADAT1 1"), digitalIn("ADAT1 2"), digitalIn("ADAT1 3"), digitalIn("ADAT1 4"),
		digitalIn("ADAT1 5"), digitalIn("ADAT1 6"), digitalIn("ADAT1 7"), digitalIn("ADAT1 8"),
		digitalIn("ADAT2 1"), digitalIn("ADAT2 2"), digitalIn("ADAT2 3"), digitalIn("ADAT2 4"),
		digitalIn("ADAT2 5"), digitalIn("ADAT2 6"), digitalIn("ADAT2 7"), digitalIn("ADAT2 8"),
	},
	Outputs: []ChannelDescriptor{
		lineOut("Line 1"), lineOut("Line 2"), lineOut("Line 3"), lineOut("Line 4"),
		lineOut("Line 5"), lineOut("Line 6"), lineOut("Line 7"), lineOut("Line 8"),
		digitalOut("ADAT1 1"), digitalOut("ADAT1 2"), digitalOut("ADAT1 3"), digitalOut("ADAT1 4"),
		digitalOut("ADAT1 5"), digitalOut("ADAT1 6"), digitalOut("ADAT1 7"), digitalOut("ADAT1 8"),
		digitalOut("ADAT2 1"), digitalOut("ADAT2 2"), digitalOut("ADAT2 3"), digitalOut("ADAT2 4"),
		digitalOut("ADAT2 5"), digitalOut("ADAT2 6"), digitalOut("ADAT2 7"), digitalOut("ADAT2 8"),
	},
	Playback:   28,
	MixerSends: 28,
}

// UFXII is the Fireface UFX II descriptor.
var UFXII = Descriptor{
	Name:     "Fireface UFX II",
	ID:       "ufxii",
	Firmware: "1.0",
	Inputs: []ChannelDescriptor{
		micIn("Mic/Line 1"), micIn("Mic/Line 2"),
		micIn("Mic/Line 3"), micIn("Mic/Line 4"),
		lineIn("Line 5"), lineIn("Line 6"), lineIn("Line 7"), lineIn("Line 8"),
		digitalIn("ADAT1 1"), digitalIn("ADAT1 2"), digitalIn("ADAT1 3"), digitalIn("ADAT1 4"),
		digitalIn("ADAT1 5"), digitalIn("ADAT1 6"), digitalIn("ADAT1 7"), digitalIn("ADAT1 8"),
		digitalIn("ADAT2 1"), digitalIn("ADAT2 2"), digitalIn("ADAT2 3"), digitalIn("ADAT2 4"),
		digitalIn("ADAT2 5"), digitalIn("ADAT2 6"), digitalIn("ADAT2 7"), digitalIn("ADAT2 8"),
		digitalIn("AES"), digitalIn("AES"),
	},
	Outputs: []ChannelDescriptor{
		lineOut("Line 1"), lineOut("Line 2"), lineOut("Line 3"), lineOut("Line 4"),
		lineOut("Line 5"), lineOut("Line 6"), lineOut("Line 7"), lineOut("Line 8"),
		digitalOut("ADAT1 1"), digitalOut("ADAT1 2"), digitalOut("ADAT1 3"), digitalOut("ADAT1 4"),
		digitalOut("ADAT1 5"), digitalOut("ADAT1 6"), digitalOut("ADAT1 7"), digitalOut("ADAT1 8"),
		digitalOut("ADAT2 1"), digitalOut("ADAT2 2"), digitalOut("ADAT2 3"), digitalOut("ADAT2 4"),
		digitalOut("ADAT2 5"), digitalOut("ADAT2 6"), digitalOut("ADAT2 7"), digitalOut("ADAT2 8"),
		digitalOut("AES"), digitalOut("AES"),
	},
	Playback:   30,
	MixerSends: 30,
}

// Descriptors is every descriptor selectable by name, in the order
// spec.md §1 names the supported variants.
var Descriptors = []Descriptor{UCX2, Fireface802, UFXII}
