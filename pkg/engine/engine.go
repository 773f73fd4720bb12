package engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/midiio"
	"github.com/gherlein/oscmix/pkg/oscio"
	"github.com/gherlein/oscmix/pkg/paramtree"
	"github.com/gherlein/oscmix/pkg/sysex"
	"github.com/hypebeast/go-osc/osc"
)

// Engine is the Translation Engine (spec.md §4.4): it owns the
// concrete parameter tree, the Device Model, and the outbound OSC
// writer, and implements the inbound-coder / outbound-coder dispatch
// the tree's Kind tags name.
type Engine struct {
	descriptor devicemodel.Descriptor
	tree       *paramtree.Node
	model      *devicemodel.Model
	osc        *oscio.Writer
	midi       *midiio.Port
	logger     *log.Logger

	metersEnabled bool

	// pendingPreFX holds the most recent pre-FX level snapshot per
	// channel kind; once one is held, post-FX snapshots also publish
	// /.../fxlevel (spec.md §4.4 "Meter publication"). The pre-FX
	// values themselves are neither published nor subtracted.
	pendingPreFXInput  []sysex.LevelWords
	pendingPreFXOutput []sysex.LevelWords
}

// New builds an Engine for descriptor d. midiPort's Write is the MIDI
// transport used by the Device Model for register writes.
func New(d devicemodel.Descriptor, midiPort *midiio.Port, oscWriter *oscio.Writer, logger *log.Logger, metersEnabled bool) *Engine {
	e := &Engine{
		descriptor:    d,
		tree:          BuildTree(d),
		osc:           oscWriter,
		midi:          midiPort,
		logger:        logger,
		metersEnabled: metersEnabled,
	}
	e.model = devicemodel.NewModel(d, midiPort.Write)
	e.registerObservers()
	return e
}

// Model exposes the Device Model, for the snapshot collaborator and
// for tests.
func (e *Engine) Model() *devicemodel.Model {
	return e.model
}

// HandleMIDIFrame decodes one complete SysEx frame and routes its
// payload to the Device Model (register traffic) or to meter
// publication (level traffic), per spec.md §4.1's sub-ID table.
func (e *Engine) HandleMIDIFrame(frame []byte) {
	parsed, outcome := sysex.ParseFrame(frame)
	if outcome != sysex.OK {
		e.logger.Warn("frame error", "outcome", outcome.String())
		return
	}

	switch parsed.Sub {
	case sysex.SubIDRegisters:
		words, outcome := sysex.DecodeRegisterPayload(parsed.Payload)
		if outcome != sysex.OK {
			e.logger.Warn("frame error", "outcome", outcome.String())
			return
		}
		for _, w := range words {
			if !w.OK {
				e.logger.Warn("frame error", "outcome", sysex.BadParity.String())
				continue
			}
			e.model.ApplyRegisterWord(w)
		}
	case sysex.SubIDPreFXInput:
		e.capturePreFX(&e.pendingPreFXInput, parsed.Payload)
	case sysex.SubIDPreFXOutput:
		e.capturePreFX(&e.pendingPreFXOutput, parsed.Payload)
	case sysex.SubIDPlayback:
		e.publishLevels("playback", parsed.Payload, nil)
	case sysex.SubIDPostFXInput:
		e.publishLevels("input", parsed.Payload, e.pendingPreFXInput)
	case sysex.SubIDPostFXOutput:
		e.publishLevels("output", parsed.Payload, e.pendingPreFXOutput)
	}
}

func (e *Engine) capturePreFX(slot *[]sysex.LevelWords, payload []byte) {
	levels, outcome := sysex.DecodeLevelPayload(payload)
	if outcome != sysex.OK {
		e.logger.Warn("frame error", "outcome", outcome.String())
		return
	}
	*slot = levels
}

// HandleOSCPacket dispatches one parsed OSC packet (message or
// bundle) to handleMessage, recursively for bundles.
func (e *Engine) HandleOSCPacket(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		e.handleMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			e.handleMessage(m)
		}
		for _, b := range p.Bundles {
			e.HandleOSCPacket(b)
		}
	}
}

func (e *Engine) emitError(code int, message string) {
	e.model.RecordError(fmt.Errorf("%s", message))
	msg := osc.NewMessage("/error")
	msg.Append(int32(code))
	msg.Append("osc")
	msg.Append(message)
	if err := e.osc.Send(msg); err != nil {
		e.logger.Warn("transport error", "context", "send /error", "err", err)
	}
}
