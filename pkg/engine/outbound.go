package engine

import (
	"fmt"

	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/sysex"
	"github.com/hypebeast/go-osc/osc"
)

// reflevelLabels mirrors the enum labels tree.go attaches to the
// input/output reflevel leaves; outbound publication needs the same
// table to emit the ",si" index+label pair spec.md §4.3 requires for
// enums.
var reflevelLabels = []string{"Lo Gain", "+4dBu", "Hi Gain"}

// clockSourceLabels mirrors systemNode's clocksource enum.
var clockSourceLabels = []string{"Internal", "AES", "ADAT", "Sync In"}

func enumLabel(labels []string, index int) string {
	if index < 0 || index >= len(labels) {
		return ""
	}
	return labels[index]
}

// registerObservers wires the Device Model's six-category roster
// (spec.md §4.3 "Observer registration") to OSC notification
// construction, one case per register class the Parameter Tree
// defines. ObserveDSP doubles as the refresh-done signal: the Model
// notifies it with Index -1 when a refresh pass completes (spec.md
// §4.3 step 3, "/refresh/done"); any other index is a genuine DSP
// load/version change.
func (e *Engine) registerObservers() {
	e.model.Observers().Register(devicemodel.ObserveDSP, func(ev devicemodel.Event) {
		if ev.Index == -1 {
			msg := osc.NewMessage("/refresh/done")
			msg.Append(int32(1))
			e.send(msg)
			return
		}
		e.publishDSP(ev)
	})
	e.model.Observers().Register(devicemodel.ObserveDURec, func(ev devicemodel.Event) {
		e.publishDURec()
	})
	e.model.Observers().Register(devicemodel.ObserveInput, func(ev devicemodel.Event) {
		e.publishInput(ev)
	})
	e.model.Observers().Register(devicemodel.ObserveOutput, func(ev devicemodel.Event) {
		e.publishOutput(ev)
	})
	e.model.Observers().Register(devicemodel.ObserveMixer, func(ev devicemodel.Event) {
		e.publishMixer(ev)
	})
	e.model.Observers().Register(devicemodel.ObserveSampleRate, func(ev devicemodel.Event) {
		e.publishSampleRate(ev)
	})
}

func (e *Engine) send(msg *osc.Message) {
	if err := e.osc.Send(msg); err != nil {
		e.logger.Warn("transport error", "context", "send OSC", "address", msg.Address, "err", err)
	}
}

// publishInput emits the single OSC address that changed for an input
// channel, matching spec.md §8 scenario 1's "one OSC message per
// register whose value differs" shape.
func (e *Engine) publishInput(ev devicemodel.Event) {
	shadow := e.model.Shadow()
	ch := ev.Index
	if ch < 0 || ch >= len(shadow.Inputs) {
		return
	}
	in := shadow.Inputs[ch]
	switch ev.Field {
	case "name":
		msg := osc.NewMessage(fmt.Sprintf("/input/%d/name", ch+1))
		msg.Append(in.Name)
		e.send(msg)
	case "gain":
		msg := osc.NewMessage(fmt.Sprintf("/input/%d/gain", ch+1))
		msg.Append(float32(float64(in.GainTenthDB) / 10))
		e.send(msg)
	case "mute":
		e.sendBool(fmt.Sprintf("/input/%d/mute", ch+1), in.Mute)
	case "48v":
		e.sendBool(fmt.Sprintf("/input/%d/48v", ch+1), in.Phantom48V)
	case "hiz":
		e.sendBool(fmt.Sprintf("/input/%d/hiz", ch+1), in.HiZ)
	case "stereo":
		e.sendBool(fmt.Sprintf("/input/%d/stereo", ch+1), in.Stereo)
	case "reflevel":
		e.sendEnum(fmt.Sprintf("/input/%d/reflevel", ch+1), in.RefLevel, reflevelLabels)
	}
}

func (e *Engine) publishOutput(ev devicemodel.Event) {
	shadow := e.model.Shadow()
	ch := ev.Index
	if ch < 0 || ch >= len(shadow.Outputs) {
		return
	}
	out := shadow.Outputs[ch]
	switch ev.Field {
	case "name":
		msg := osc.NewMessage(fmt.Sprintf("/output/%d/name", ch+1))
		msg.Append(out.Name)
		e.send(msg)
	case "volume":
		msg := osc.NewMessage(fmt.Sprintf("/output/%d/volume", ch+1))
		msg.Append(float32(float64(out.VolumeTenthDB) / 10))
		e.send(msg)
	case "mute":
		e.sendBool(fmt.Sprintf("/output/%d/mute", ch+1), out.Mute)
	case "stereo":
		e.sendBool(fmt.Sprintf("/output/%d/stereo", ch+1), out.Stereo)
	case "reflevel":
		e.sendEnum(fmt.Sprintf("/output/%d/reflevel", ch+1), out.RefLevel, reflevelLabels)
	case "dither":
		e.sendBool(fmt.Sprintf("/output/%d/dither", ch+1), out.Dither)
	}
}

// publishMixer emits one mixer cell's changed half (volume or pan),
// spec.md §4.4's "reg+1" split between the two (spec.md §8 scenario
// 3).
func (e *Engine) publishMixer(ev devicemodel.Event) {
	shadow := e.model.Shadow()
	o, i := ev.Index, ev.Index2
	if o < 0 || o >= len(shadow.Mixer) || i < 0 || i >= len(shadow.Mixer[o]) {
		return
	}
	cell := shadow.Mixer[o][i]
	switch ev.Field {
	case "volume":
		msg := osc.NewMessage(fmt.Sprintf("/mix/%d/input/%d", o+1, i+1))
		msg.Append(float32(float64(cell.VolumeTenthDB) / 10))
		e.send(msg)
	case "pan":
		msg := osc.NewMessage(fmt.Sprintf("/mix/%d/input/%d/pan", o+1, i+1))
		msg.Append(int32(cell.Pan))
		e.send(msg)
	}
}

// publishSampleRate emits /system/samplerate or /system/clocksource
// (spec.md §6's "both" direction OSC surface table).
func (e *Engine) publishSampleRate(ev devicemodel.Event) {
	shadow := e.model.Shadow()
	switch ev.Field {
	case "hz":
		if shadow.SampleRate.Hz == 0 {
			return // unknown rate index; don't publish (pkg/mixer's SampleRateHz contract)
		}
		msg := osc.NewMessage("/system/samplerate")
		msg.Append(int32(shadow.SampleRate.Hz))
		e.send(msg)
	case "clocksource":
		e.sendEnum("/system/clocksource", shadow.SampleRate.ClockSource, clockSourceLabels)
	}
}

// publishDSP emits /hardware/dspload or /hardware/dspversion for a
// genuine DSP register change (as opposed to the refresh-done
// sentinel, handled separately by the caller).
func (e *Engine) publishDSP(ev devicemodel.Event) {
	shadow := e.model.Shadow()
	switch ev.Field {
	case "load":
		msg := osc.NewMessage("/hardware/dspload")
		msg.Append(int32(shadow.DSP.LoadPercent))
		e.send(msg)
	case "version":
		msg := osc.NewMessage("/hardware/dspversion")
		msg.Append(int32(shadow.DSP.FirmwareVersion))
		e.send(msg)
	}
}

func (e *Engine) sendBool(address string, v bool) {
	msg := osc.NewMessage(address)
	if v {
		msg.Append(int32(1))
	} else {
		msg.Append(int32(0))
	}
	e.send(msg)
}

// sendEnum emits an enum leaf's ",si" pair: the integer index and its
// label string (spec.md §4.3 "enums emit both the integer index and
// the label string").
func (e *Engine) sendEnum(address string, index int, labels []string) {
	msg := osc.NewMessage(address)
	msg.Append(int32(index))
	msg.Append(enumLabel(labels, index))
	e.send(msg)
}

func (e *Engine) publishDURec() {
	shadow := e.model.Shadow()
	msg := osc.NewMessage("/durec/status")
	msg.Append(int32(shadow.DURec.State))
	msg.Append(shadow.DURec.State.String())
	e.send(msg)
}

// publishLevels converts one metering payload to peak/rms dB per
// channel and emits /<kind>/N/level ,ff (spec.md §4.4 "Meter
// publication"). When pre is non-nil (a pre-FX snapshot was captured
// for the same channel set), a second /<kind>/N/fxlevel message
// carries the same post-FX readings for each channel that pre covers;
// the pre-FX values are not subtracted from them.
func (e *Engine) publishLevels(kind string, payload []byte, pre []sysex.LevelWords) {
	if !e.metersEnabled {
		return
	}
	levels, outcome := sysex.DecodeLevelPayload(payload)
	if outcome != sysex.OK {
		e.logger.Warn("frame error", "outcome", outcome.String())
		return
	}
	for i, l := range levels {
		peak := sysex.PeakDB(l.Peak)
		rms := sysex.RMSDB(l.RMSLo, l.RMSHi)

		msg := osc.NewMessage(fmt.Sprintf("/%s/%d/level", kind, i+1))
		msg.Append(float32(peak))
		msg.Append(float32(rms))
		e.send(msg)

		if pre != nil && i < len(pre) {
			fxMsg := osc.NewMessage(fmt.Sprintf("/%s/%d/fxlevel", kind, i+1))
			fxMsg.Append(float32(peak))
			fxMsg.Append(float32(rms))
			e.send(fxMsg)
		}
	}
}
