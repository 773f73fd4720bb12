package engine

import (
	"fmt"

	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/paramtree"
)

// BuildTree constructs the concrete parameter tree for descriptor d
// (spec.md §3 "Parameter node", §4.2). The tree is rebuilt whenever a
// new descriptor is selected at startup; it never changes during a
// run.
func BuildTree(d devicemodel.Descriptor) *paramtree.Node {
	root := &paramtree.Node{
		Children: []*paramtree.Node{
			systemNode(),
			channelGroupNode("input", d.Inputs, inputChannelNode),
			channelGroupNode("output", d.Outputs, outputChannelNode),
			playbackNode(d),
			mixerNode(d),
			hardwareNode(),
			durecRootNode(),
			{Segment: "refresh", Kind: paramtree.KindRefresh},
			{Segment: "logs", Kind: paramtree.KindReadOnlyString},
			{Segment: "errors", Children: []*paramtree.Node{
				{Segment: "last", Kind: paramtree.KindErrorsLast},
			}},
			{Segment: "version", Kind: paramtree.KindReadOnlyString},
			{Segment: "oscstatus", Kind: paramtree.KindReadOnlyString},
		},
	}
	return root
}

func systemNode() *paramtree.Node {
	return &paramtree.Node{
		Segment: "system",
		Children: []*paramtree.Node{
			{Segment: "samplerate", Register: SampleRateReg, Kind: paramtree.KindSampleRate},
			{
				Segment:  "clocksource",
				Register: ClockSourceReg,
				Kind:     paramtree.KindClockSource,
				Data:     &paramtree.CoderData{Labels: []string{"Internal", "AES", "ADAT", "Sync In"}},
			},
		},
	}
}

// channelGroupNode builds a `group/*` node whose single wildcard child
// takes its children from perChannel called once, for the first
// channel descriptor. No capability flags are stored in the tree;
// inbound coders reject unsupported operations (spec.md §7 "Semantic"
// errors) by consulting the Descriptor.
func channelGroupNode(segment string, channels []devicemodel.ChannelDescriptor, perChannel func(int, devicemodel.ChannelDescriptor) *paramtree.Node) *paramtree.Node {
	// All channels share one wildcard template; per-channel capability
	// differences are resolved at translation time via the Descriptor,
	// not by generating one tree node per channel.
	var template *paramtree.Node
	if len(channels) > 0 {
		template = perChannel(0, channels[0])
	}
	return &paramtree.Node{
		Segment:  segment,
		Children: []*paramtree.Node{{Segment: paramtree.Wildcard, Children: childrenOrNil(template)}},
	}
}

func childrenOrNil(n *paramtree.Node) []*paramtree.Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func inputChannelNode(_ int, _ devicemodel.ChannelDescriptor) *paramtree.Node {
	return &paramtree.Node{
		Children: []*paramtree.Node{
			{Segment: "gain", Register: InputGainBase, Kind: paramtree.KindInputGain},
			{Segment: "mute", Register: InputMuteBase, Kind: paramtree.KindBool},
			{Segment: "48v", Register: Input48VBase, Kind: paramtree.KindBool},
			{Segment: "hiz", Register: InputHiZBase, Kind: paramtree.KindInputHiZ},
			{Segment: "stereo", Register: InputStereoBase, Kind: paramtree.KindInputStereo},
			{Segment: "reflevel", Register: InputRefLevelBase, Kind: paramtree.KindEnum,
				Data: &paramtree.CoderData{Labels: []string{"Lo Gain", "+4dBu", "Hi Gain"}}},
			{Segment: "level", Kind: paramtree.KindLevel},
		},
	}
}

func outputChannelNode(_ int, _ devicemodel.ChannelDescriptor) *paramtree.Node {
	return &paramtree.Node{
		Children: []*paramtree.Node{
			{Segment: "volume", Register: OutputVolumeBase, Kind: paramtree.KindFixed,
				Data: &paramtree.CoderData{Min: -650, Max: 60, Scale: 10}},
			{Segment: "mute", Register: OutputMuteBase, Kind: paramtree.KindBool},
			{Segment: "stereo", Register: OutputStereoBase, Kind: paramtree.KindOutputStereo},
			{Segment: "reflevel", Register: OutputRefLevelBase, Kind: paramtree.KindEnum,
				Data: &paramtree.CoderData{Labels: []string{"Lo Gain", "+4dBu", "Hi Gain"}}},
			{Segment: "dither", Register: OutputDitherBase, Kind: paramtree.KindBool},
			{Segment: "level", Kind: paramtree.KindLevel},
		},
	}
}

func playbackNode(d devicemodel.Descriptor) *paramtree.Node {
	return &paramtree.Node{
		Segment: "playback",
		Children: []*paramtree.Node{
			{Segment: paramtree.Wildcard, Children: []*paramtree.Node{
				{Segment: "level", Kind: paramtree.KindLevel},
			}},
		},
	}
}

func mixerNode(d devicemodel.Descriptor) *paramtree.Node {
	return &paramtree.Node{
		Segment: "mix",
		Children: []*paramtree.Node{
			{Segment: paramtree.Wildcard, Children: []*paramtree.Node{
				{Segment: "input", Children: []*paramtree.Node{
					{Segment: paramtree.Wildcard, Kind: paramtree.KindMix, Children: []*paramtree.Node{
						{Segment: "pan", Kind: paramtree.KindMixPan},
					}},
				}},
			}},
		},
	}
}

func hardwareNode() *paramtree.Node {
	return &paramtree.Node{
		Segment: "hardware",
		Children: []*paramtree.Node{
			{Segment: "dspload", Register: DSPLoadReg, Kind: paramtree.KindDSPLoad},
			{Segment: "dspversion", Register: DSPVersionReg, Kind: paramtree.KindDSPVersion},
		},
	}
}

func durecRootNode() *paramtree.Node {
	return &paramtree.Node{
		Segment: "durec",
		Children: []*paramtree.Node{
			{Segment: "status", Kind: paramtree.KindDurecStatus},
			{Segment: "position", Kind: paramtree.KindInt},
			{Segment: "playmode", Kind: paramtree.KindDurecPlaymode},
			{Segment: "file", Kind: paramtree.KindDurecFile},
			{Segment: "record", Kind: paramtree.KindDurecTransport},
			{Segment: "stop", Kind: paramtree.KindDurecTransport},
			{Segment: "play", Kind: paramtree.KindDurecTransport},
			{Segment: "delete", Kind: paramtree.KindDurecDelete},
			{Segment: "next", Kind: paramtree.KindDurecTransport},
		},
	}
}

// ErrUnknownAddress names the error of an OSC address with no match in
// the tree (spec.md §7 "Protocol"). handleMessage does not return it;
// it reports such an address with an /error message, code 404.
var ErrUnknownAddress = fmt.Errorf("unknown address")
