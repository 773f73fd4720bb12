package engine

import (
	"fmt"
	"math"

	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/durec"
	"github.com/gherlein/oscmix/pkg/mixer"
	"github.com/gherlein/oscmix/pkg/paramtree"
	"github.com/hypebeast/go-osc/osc"
)

// handleMessage resolves one inbound OSC message through the
// parameter tree and dispatches it to the inbound coder its leaf
// node's Kind names (spec.md §4.2 "Inbound coders").
func (e *Engine) handleMessage(msg *osc.Message) {
	path, ok := e.tree.Resolve(msg.Address)
	if !ok {
		e.emitError(404, fmt.Sprintf("unknown address %s", msg.Address))
		return
	}
	leaf := path[len(path)-1]

	switch leaf.Node.Kind {
	case paramtree.KindRefresh:
		e.handleRefresh()
	case paramtree.KindBool:
		e.handleBool(path, leaf, msg)
	case paramtree.KindInt:
		e.handleInt(leaf, msg)
	case paramtree.KindFixed:
		e.handleFixed(leaf, msg)
	case paramtree.KindEnum:
		e.handleEnum(leaf, msg)
	case paramtree.KindInputGain:
		e.handleInputGain(path, leaf, msg)
	case paramtree.KindInputStereo:
		e.handleStereoLink(path, leaf, msg, true)
	case paramtree.KindOutputStereo:
		e.handleStereoLink(path, leaf, msg, false)
	case paramtree.KindInputHiZ:
		e.handleInputHiZ(path, leaf, msg)
	case paramtree.KindMix:
		e.handleMix(path, msg)
	case paramtree.KindMixPan:
		e.handleMixPan(path, msg)
	case paramtree.KindClockSource:
		e.handleClockSource(leaf, msg)
	case paramtree.KindSampleRate:
		e.handleSampleRate(leaf, msg)
	case paramtree.KindDurecTransport:
		e.handleDurecTransport(leaf)
	case paramtree.KindDurecFile:
		e.handleDurecFile(msg)
	case paramtree.KindDurecDelete:
		e.handleDurecDelete(msg)
	case paramtree.KindDurecPlaymode:
		e.handleDurecPlaymode(msg)
	default:
		e.emitError(405, fmt.Sprintf("address %s is not writable", msg.Address))
	}
}

func firstArg(msg *osc.Message) (interface{}, bool) {
	if len(msg.Arguments) == 0 {
		return nil, false
	}
	return msg.Arguments[0], true
}

// argFloat coerces an OSC argument of type i/f/T/F to a float64,
// matching spec.md §4.2's "accepts i, f, booleans" coders.
func argFloat(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func argBool(arg interface{}) (bool, bool) {
	v, ok := argFloat(arg)
	return v != 0, ok
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// handleRefresh starts a refresh pass (spec.md §4.3).
func (e *Engine) handleRefresh() {
	if err := e.model.StartRefresh(); err != nil {
		e.logger.Warn("transport error", "context", "refresh", "err", err)
	}
}

// handleBool writes 0 or 1 to leaf's register (spec.md §4.2 "bool").
func (e *Engine) handleBool(path []paramtree.Match, leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	b, ok := argBool(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	channel := channelIndex(path)
	addr := registerForChannel(leaf.Node.Register, channel)
	value := uint16(0)
	if b {
		value = 1
	}
	e.writeRegister(addr, value)
}

func registerForChannel(base uint16, channel int) uint16 {
	return devicemodel.RegisterForChannel(base, channel)
}

func (e *Engine) handleInt(leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	min, max := 0, 0xFFFF
	if leaf.Node.Data != nil {
		min, max = leaf.Node.Data.Min, leaf.Node.Data.Max
	}
	v := clampInt(int(math.Round(f)), min, max)
	e.writeRegister(leaf.Node.Register, uint16(v))
}

func (e *Engine) handleFixed(leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	scale := 1.0
	min, max := -0x8000, 0x7FFF
	if leaf.Node.Data != nil {
		if leaf.Node.Data.Scale != 0 {
			scale = leaf.Node.Data.Scale
		}
		min, max = leaf.Node.Data.Min, leaf.Node.Data.Max
	}
	v := clampInt(int(math.Round(f*scale)), min, max)
	e.writeRegister(leaf.Node.Register, uint16(v))
}

func (e *Engine) handleEnum(leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	var index int
	switch v := arg.(type) {
	case string:
		found := false
		if leaf.Node.Data != nil {
			for i, label := range leaf.Node.Data.Labels {
				if label == v {
					index, found = i, true
					break
				}
			}
		}
		if !found {
			e.emitError(422, fmt.Sprintf("unknown enum label %q", v))
			return
		}
	default:
		f, ok := argFloat(arg)
		if !ok {
			e.emitError(422, "argument type mismatch")
			return
		}
		index = int(math.Round(f))
	}
	if leaf.Node.Data != nil && len(leaf.Node.Data.Labels) > 0 {
		index = clampInt(index, 0, len(leaf.Node.Data.Labels)-1)
	}
	e.writeRegister(leaf.Node.Register, uint16(index))
}

// handleInputGain writes dB*10, ranged by whether the channel is a
// mic (0..75 dB) or line (0..24 dB) input (spec.md §4.2 "inputgain").
// A value outside the channel's range is rejected outright — dropped
// and reported via /error — rather than clamped, per spec.md §8's
// boundary example (25 dB on a line-only channel is rejected, not
// passed through at 24).
func (e *Engine) handleInputGain(path []paramtree.Match, leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	channel := channelIndex(path)
	if channel < 0 || channel >= len(e.descriptor.Inputs) {
		e.emitError(422, "channel out of range")
		return
	}
	maxDB := 24.0
	if e.descriptor.Inputs[channel].Mic {
		maxDB = 75.0
	}
	if f < 0 || f > maxDB {
		e.emitError(422, fmt.Sprintf("/input/%d/gain: %.1f out of range [0,%.1f]", channel+1, f, maxDB))
		return
	}
	addr := registerForChannel(leaf.Node.Register, channel)
	e.writeRegister(addr, uint16(math.Round(f*10)))
}

// handleStereoLink writes to both channels of the stereo pair
// (spec.md §4.2 "inputstereo / outputstereo"; §8 "stereo symmetry").
func (e *Engine) handleStereoLink(path []paramtree.Match, leaf paramtree.Match, msg *osc.Message, input bool) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	b, ok := argBool(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	channel := channelIndex(path)
	pairBase := channel &^ 1 // round down to the even channel of the pair
	value := uint16(0)
	if b {
		value = 1
	}
	e.writeRegister(registerForChannel(leaf.Node.Register, pairBase), value)
	e.writeRegister(registerForChannel(leaf.Node.Register, pairBase+1), value)
}

// handleInputHiZ rejects the write outright if the channel lacks the
// HIZ capability flag (spec.md §7 "Semantic").
func (e *Engine) handleInputHiZ(path []paramtree.Match, leaf paramtree.Match, msg *osc.Message) {
	channel := channelIndex(path)
	if channel < 0 || channel >= len(e.descriptor.Inputs) {
		e.emitError(422, "channel out of range")
		return
	}
	if !e.descriptor.Inputs[channel].Has(devicemodel.FlagHiZ) {
		e.emitError(409, fmt.Sprintf("/input/%d/hiz: channel has no HIZ capability", channel+1))
		return
	}
	e.handleBool(path, leaf, msg)
}

// handleMix applies the mixer law to a 1-3 argument mix message
// (vol, pan, width) and writes the two mixer-cell registers (spec.md
// §4.2 "mix", §4.4 "Mixer law"). Width is only meaningful when the
// input channel is part of a stereo-linked pair; the decision to
// express width as independent per-channel (dB, pan=0) cells derived
// from StereoLaw's mid/side recomposition is documented in DESIGN.md.
func (e *Engine) handleMix(path []paramtree.Match, msg *osc.Message) {
	if len(msg.Arguments) == 0 {
		e.emitError(422, "missing argument")
		return
	}
	vol, ok := argFloat(msg.Arguments[0])
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	pan := 0
	if len(msg.Arguments) > 1 {
		p, ok := argFloat(msg.Arguments[1])
		if !ok {
			e.emitError(422, "argument type mismatch")
			return
		}
		pan = int(math.Round(p))
	}

	output := path[1].Index
	input := path[3].Index

	if len(msg.Arguments) > 2 {
		width, ok := argFloat(msg.Arguments[2])
		if !ok {
			e.emitError(422, "argument type mismatch")
			return
		}
		e.writeStereoMix(output, input, vol, pan, width)
		return
	}

	addr := mixerVolumeRegister(output, input)
	e.writeRegister(addr, mixer.WireVolume(vol))
	e.writeRegister(addr+1, mixer.WirePan(pan))
}

func (e *Engine) writeStereoMix(output, input int, vol float64, pan int, width float64) {
	send := mixer.StereoLaw(vol, pan, width)
	leftDB := linearToDB(send.Left)
	rightDB := linearToDB(send.Right)

	leftAddr := mixerVolumeRegister(output, input&^1)
	rightAddr := mixerVolumeRegister(output, (input&^1)+1)
	e.writeRegister(leftAddr, mixer.WireVolume(leftDB))
	e.writeRegister(leftAddr+1, mixer.WirePan(0))
	e.writeRegister(rightAddr, mixer.WireVolume(rightDB))
	e.writeRegister(rightAddr+1, mixer.WirePan(0))
}

func linearToDB(gain float64) float64 {
	if gain <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(gain)
}

func (e *Engine) handleMixPan(path []paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	output := path[1].Index
	input := path[3].Index
	addr := mixerVolumeRegister(output, input)
	e.writeRegister(addr+1, mixer.WirePan(int(math.Round(f))))
}

func (e *Engine) handleClockSource(leaf paramtree.Match, msg *osc.Message) {
	e.handleEnum(leaf, msg)
}

// handleSampleRate writes the device's rate-table index for an
// inbound Hz value (spec.md §6 "/system/samplerate", "32000…192000
// Hz"). A value that isn't one of the supported rates is rejected
// rather than rounded to the nearest supported rate, matching
// handleInputGain's range-rejection behavior for the same class of
// error (spec.md §7 "value out of range").
func (e *Engine) handleSampleRate(leaf paramtree.Match, msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	index, ok := mixer.IndexForHz(int(math.Round(f)))
	if !ok {
		e.emitError(422, fmt.Sprintf("/system/samplerate: %d Hz is not a supported rate", int(math.Round(f))))
		return
	}
	e.writeRegister(leaf.Node.Register, uint16(index))
}

func (e *Engine) handleDurecTransport(leaf paramtree.Match) {
	var cmd uint16
	switch leaf.Node.Segment {
	case "record":
		cmd = durec.CmdRecord
	case "stop":
		cmd = durec.CmdStop
	case "play":
		cmd = durec.CmdPlay
	case "next":
		cmd = durec.CmdPlay // advances via the same transport register
	default:
		return
	}
	e.writeRegister(durec.RegStatus, cmd)
}

func (e *Engine) handleDurecFile(msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	e.writeRegister(durec.CmdFileSelect, uint16(int(f))|0x8000)
}

func (e *Engine) handleDurecDelete(msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	e.writeRegister(durec.CmdDelete, uint16(int(f)))
}

func (e *Engine) handleDurecPlaymode(msg *osc.Message) {
	arg, ok := firstArg(msg)
	if !ok {
		e.emitError(422, "missing argument")
		return
	}
	f, ok := argFloat(arg)
	if !ok {
		e.emitError(422, "argument type mismatch")
		return
	}
	e.writeRegister(durec.RegPlaymode, uint16(int(f)))
}

func (e *Engine) writeRegister(addr, value uint16) {
	if err := e.model.WriteRegister(addr, value); err != nil {
		e.logger.Warn("transport error", "context", "write register", "addr", addr, "err", err)
	}
}

// channelIndex returns the 0-based channel of the first wildcard
// Match in path (the only wildcard level for input/output/playback
// address groups).
func channelIndex(path []paramtree.Match) int {
	for _, m := range path {
		if m.Node.Segment == paramtree.Wildcard {
			return m.Index
		}
	}
	return 0
}
