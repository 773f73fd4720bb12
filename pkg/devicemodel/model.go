package devicemodel

import (
	"fmt"
	"sync"

	"github.com/gherlein/oscmix/pkg/durec"
	"github.com/gherlein/oscmix/pkg/mixer"
	"github.com/gherlein/oscmix/pkg/sysex"
)

// MIDIWriter is the write half of the MIDI transport contract from
// spec.md §6: raw bytes already framed with 0xF0...0xF7.
type MIDIWriter func(frame []byte) error

// Model is the single source of truth for device register state
// (spec.md §4.3): the last-seen cell for every observed register, the
// higher-level Shadow derived from it, the refresh flag, and the
// observer roster. All mutation happens under mu, matching §5's
// "single exclusive section around the Device Model".
type Model struct {
	mu sync.Mutex

	descriptor Descriptor
	write      MIDIWriter

	cells  map[uint16]uint16 // last value from any source (local write or device echo); read by Cell()
	echoed map[uint16]uint16 // last value actually confirmed by the device, via ApplyRegisterWord
	shadow *Shadow

	refreshing   bool
	refreshDirty map[uint16]uint16 // addr -> value, registers touched during the in-flight refresh

	observers ObserverRoster

	lastError error
}

// NewModel builds a Model for descriptor d, writing outbound frames
// through write.
func NewModel(d Descriptor, write MIDIWriter) *Model {
	return &Model{
		descriptor:   d,
		write:        write,
		cells:        make(map[uint16]uint16),
		echoed:       make(map[uint16]uint16),
		shadow:       NewShadow(d),
		refreshDirty: make(map[uint16]uint16),
	}
}

// Descriptor returns the active device descriptor.
func (m *Model) Descriptor() Descriptor {
	return m.descriptor
}

// Observers exposes the registration surface for the six fixed
// categories (spec.md §4.3 "Observer registration").
func (m *Model) Observers() *ObserverRoster {
	return &m.observers
}

// Refreshing reports whether a refresh pass is currently in flight.
func (m *Model) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// LastError returns the last Protocol/Semantic error recorded, for
// the /errors/last OSC surface (spec.md §7). Nil if none yet.
func (m *Model) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// RecordError stashes err as the last retrievable error. Called by the
// Translation Engine when it drops a Protocol or Semantic-class
// message.
func (m *Model) RecordError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}

// WriteRegister issues a register-write request: it frames (addr,
// value) through the SysEx codec, writes it over MIDI, and
// speculatively updates the shadow cell so a subsequent OSC query
// does not observe a stale intermediate value (spec.md §4.3). The
// device's own echo, arriving later via ApplyRegisterWord, reconciles
// the authoritative value. A write failure is returned to the caller
// but never rolls back the speculative update — per spec.md §5, the
// device reconciles on the next refresh. The speculative update does
// not fan out to observers; it is a local read-your-writes guarantee,
// not a register observation.
func (m *Model) WriteRegister(addr, value uint16) error {
	m.mu.Lock()
	m.cells[addr] = value
	m.projectRegisterToShadowLocked(addr, value)
	m.mu.Unlock()

	frame := sysex.BuildRegisterWriteFrame(addr, value)
	if err := m.write(frame); err != nil {
		return fmt.Errorf("write register 0x%04x: %w", addr, err)
	}
	return nil
}

// Cell returns the last-seen value of addr and whether it has ever
// been observed.
func (m *Model) Cell(addr uint16) (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cells[addr]
	return v, ok
}

// Shadow returns the live Shadow projection. Callers must not mutate
// it outside the Model's exclusive section (Lock/Unlock, or
// SetShadowNoNotify); it is exposed read-mostly for
// outbound coders that need to read current state (e.g. enum labels).
func (m *Model) Shadow() *Shadow {
	return m.shadow
}

// Lock/Unlock expose the Model's exclusive section directly for
// callers (the Translation Engine, the Scheduler) that need to read
// and mutate Shadow atomically alongside a register write, matching
// spec.md §5's single exclusive section.
func (m *Model) Lock()   { m.mu.Lock() }
func (m *Model) Unlock() { m.mu.Unlock() }

// StartRefresh begins a refresh pass (spec.md §4.3 "Refresh
// protocol"): on startup, or on any OSC /refresh. A second /refresh
// while one is in flight is a no-op (the spec permits either a no-op
// or a deferred retry; this model chooses no-op — see DESIGN.md).
func (m *Model) StartRefresh() error {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		return nil
	}
	m.refreshing = true
	m.refreshDirty = make(map[uint16]uint16)
	m.mu.Unlock()

	return m.writeRefreshMagic()
}

func (m *Model) writeRefreshMagic() error {
	buf := make([]byte, 4)
	buf[0] = byte(sysex.RefreshMagic)
	buf[1] = byte(sysex.RefreshMagic >> 8)
	buf[2] = byte(sysex.RefreshMagic >> 16)
	buf[3] = byte(sysex.RefreshMagic >> 24)
	frame := sysex.BuildFrame(sysex.SubIDRegisters, buf)
	if err := m.write(frame); err != nil {
		return fmt.Errorf("write refresh magic: %w", err)
	}
	return nil
}

// ApplyRegisterWord runs one decoded inbound register word through
// the diff gate (spec.md §4.3 "Register observation"): unchanged
// values are dropped silently; changed values update the cell and, if
// not suppressed by an in-flight refresh, fan out to observers via
// notify. The refresh-done sentinel is never suppressed and always
// ends the refresh pass first.
func (m *Model) ApplyRegisterWord(word sysex.RegisterWord) {
	if !word.OK {
		return
	}

	if word.Addr == sysex.RefreshDoneAddr {
		m.finishRefresh()
		return
	}

	m.mu.Lock()
	prev, seen := m.echoed[word.Addr]
	changed := !seen || prev != word.Value
	m.cells[word.Addr] = word.Value
	m.echoed[word.Addr] = word.Value
	refreshing := m.refreshing
	if refreshing && changed {
		m.refreshDirty[word.Addr] = word.Value
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if refreshing {
		return
	}
	m.applyToShadowAndNotify(word.Addr, word.Value)
}

// finishRefresh clears the refreshing flag, replays every register
// touched during the refresh whose final value differs from the
// register's wire-format default (spec.md §8 scenario 2: "plus one
// OSC message per register whose value differs from its default" —
// the default is taken as the wire zero value, since no register in
// this layout is documented with a non-zero reset value; see
// DESIGN.md), and finally emits /refresh/done by notifying ObserveDSP
// with a sentinel event. The Translation Engine turns both into actual
// OSC messages, since Model has no OSC dependency.
func (m *Model) finishRefresh() {
	m.mu.Lock()
	m.refreshing = false
	dirty := m.refreshDirty
	m.refreshDirty = make(map[uint16]uint16)
	m.mu.Unlock()

	for addr, value := range dirty {
		if value == 0 {
			continue
		}
		m.applyToShadowAndNotify(addr, value)
	}

	m.observers.notify(Event{Category: ObserveDSP, Index: -1})
}

// applyToShadowAndNotify updates the higher-level Shadow projection
// for addr/value and fans out the matching observer event.
func (m *Model) applyToShadowAndNotify(addr, value uint16) {
	m.mu.Lock()
	ev, ok := m.projectRegisterToShadowLocked(addr, value)
	m.mu.Unlock()

	if ok {
		m.observers.notify(ev)
	}
}

// projectRegisterToShadowLocked is the Device Model's register-to-
// Shadow mapping (spec.md §4.3 "Register observation"): every register
// range the Parameter Tree defines is projected onto its Shadow field
// here and paired with the observer category that must be notified.
// Callers must hold mu. It is intrinsic to the Device Model, not to
// the Translation Engine's coder dispatch, because Shadow is this
// package's own state.
func (m *Model) projectRegisterToShadowLocked(addr, value uint16) (Event, bool) {
	if ch, slot, ok := nameRegisterOffset(addr, InputNameBase, nameRegisterStride); ok && ch < len(m.shadow.Inputs) {
		m.applyNameSlot(&m.shadow.Inputs[ch].Name, ch, slot, value, InputNameBase)
		return Event{Category: ObserveInput, Index: ch, Field: "name"}, true
	}
	if ch, slot, ok := nameRegisterOffset(addr, OutputNameBase, nameRegisterStride); ok && ch < len(m.shadow.Outputs) {
		m.applyNameSlot(&m.shadow.Outputs[ch].Name, ch, slot, value, OutputNameBase)
		return Event{Category: ObserveOutput, Index: ch, Field: "name"}, true
	}

	if ch, ok := channelFromRegister(addr, InputGainBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].GainTenthDB = int(value)
		return Event{Category: ObserveInput, Index: ch, Field: "gain"}, true
	}
	if ch, ok := channelFromRegister(addr, InputMuteBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].Mute = value != 0
		return Event{Category: ObserveInput, Index: ch, Field: "mute"}, true
	}
	if ch, ok := channelFromRegister(addr, Input48VBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].Phantom48V = value != 0
		return Event{Category: ObserveInput, Index: ch, Field: "48v"}, true
	}
	if ch, ok := channelFromRegister(addr, InputHiZBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].HiZ = value != 0
		return Event{Category: ObserveInput, Index: ch, Field: "hiz"}, true
	}
	if ch, ok := channelFromRegister(addr, InputStereoBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].Stereo = value != 0
		return Event{Category: ObserveInput, Index: ch, Field: "stereo"}, true
	}
	if ch, ok := channelFromRegister(addr, InputRefLevelBase, len(m.shadow.Inputs)); ok {
		m.shadow.Inputs[ch].RefLevel = int(value)
		return Event{Category: ObserveInput, Index: ch, Field: "reflevel"}, true
	}

	if ch, ok := channelFromRegister(addr, OutputVolumeBase, len(m.shadow.Outputs)); ok {
		m.shadow.Outputs[ch].VolumeTenthDB = mixer.DecodeVolumeTenthDB(value)
		return Event{Category: ObserveOutput, Index: ch, Field: "volume"}, true
	}
	if ch, ok := channelFromRegister(addr, OutputMuteBase, len(m.shadow.Outputs)); ok {
		m.shadow.Outputs[ch].Mute = value != 0
		return Event{Category: ObserveOutput, Index: ch, Field: "mute"}, true
	}
	if ch, ok := channelFromRegister(addr, OutputStereoBase, len(m.shadow.Outputs)); ok {
		m.shadow.Outputs[ch].Stereo = value != 0
		return Event{Category: ObserveOutput, Index: ch, Field: "stereo"}, true
	}
	if ch, ok := channelFromRegister(addr, OutputRefLevelBase, len(m.shadow.Outputs)); ok {
		m.shadow.Outputs[ch].RefLevel = int(value)
		return Event{Category: ObserveOutput, Index: ch, Field: "reflevel"}, true
	}
	if ch, ok := channelFromRegister(addr, OutputDitherBase, len(m.shadow.Outputs)); ok {
		m.shadow.Outputs[ch].Dither = value != 0
		return Event{Category: ObserveOutput, Index: ch, Field: "dither"}, true
	}

	if o, i, isPan, ok := mixerCellFromRegister(addr, value, len(m.shadow.Mixer), len(m.shadow.Inputs)); ok {
		if isPan {
			m.shadow.Mixer[o][i].Pan = mixer.DecodePan(value)
			return Event{Category: ObserveMixer, Index: o, Index2: i, Field: "pan"}, true
		}
		m.shadow.Mixer[o][i].VolumeTenthDB = mixer.DecodeVolumeTenthDB(value)
		return Event{Category: ObserveMixer, Index: o, Index2: i, Field: "volume"}, true
	}

	switch addr {
	case SampleRateReg:
		m.shadow.SampleRate.Hz = mixer.SampleRateHz(int(value))
		return Event{Category: ObserveSampleRate, Field: "hz"}, true
	case ClockSourceReg:
		m.shadow.SampleRate.ClockSource = int(value)
		return Event{Category: ObserveSampleRate, Field: "clocksource"}, true
	case DSPLoadReg:
		m.shadow.DSP.LoadPercent = int(value)
		return Event{Category: ObserveDSP, Field: "load"}, true
	case DSPVersionReg:
		m.shadow.DSP.FirmwareVersion = int(value)
		return Event{Category: ObserveDSP, Field: "version"}, true
	}

	if changed := m.shadow.DURec.ApplyRegister(addr, value); changed {
		return Event{Category: ObserveDURec, Field: "status"}, true
	}

	// Unmapped registers are still retained in cells (the "last seen"
	// snapshot, spec.md §3) but have no Shadow projection or observer
	// category; the Translation Engine's outbound coders read cells
	// directly for those.
	return Event{}, false
}

// applyNameSlot rewrites one register's worth (two characters) of a
// channel name in place by re-deriving the full 12-byte field from
// cells, matching spec.md §4.3's "zero-padded" packing.
func (m *Model) applyNameSlot(name *string, channel, slot int, value uint16, base uint16) {
	var words [nameRegistersPerChannel]uint16
	for i := range words {
		if i == slot {
			words[i] = value
			continue
		}
		addr := base + uint16(channel*nameRegisterStride+i)
		words[i] = m.cells[addr]
	}
	*name = UnpackName(words)
}

// SetShadowNoNotify sets an explicit Shadow value without going
// through register observation, for callers (e.g. snapshot restore)
// that populate Shadow directly rather than by replaying register
// traffic. It does not fan out to observers.
func (m *Model) SetShadowNoNotify(fn func(*Shadow)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.shadow)
}

// Errors returned by Model methods to Protocol/Semantic-class callers.
var (
	ErrUnsupportedCapability = fmt.Errorf("operation requires a capability the channel does not have")
	ErrOutOfRange            = fmt.Errorf("value out of range")
)
