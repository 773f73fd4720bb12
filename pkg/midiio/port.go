// Package midiio is the raw-byte MIDI port adapter wrapping
// gitlab.com/gomidi/midi/v2: a read function delivering whole SysEx
// frames and a write function accepting frames already bracketed with
// 0xF0...0xF7 (spec.md §6 "MIDI transport"). OS-specific drivers
// (ALSA/CoreMIDI/WinMM) are supplied by the midi/v2 driver backend the
// caller registers; this package only talks to the driver-neutral
// surface.
package midiio

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Port is one opened MIDI in/out pair, identified by a shared device
// name (spec.md §6's -p flag / MIDIPORT env var select this name).
type Port struct {
	in   drivers.In
	out  drivers.Out
	stop func()
}

// Open finds and opens the in/out ports matching name.
func Open(name string) (*Port, error) {
	in, err := midi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("find MIDI input port %q: %w", name, err)
	}
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find MIDI output port %q: %w", name, err)
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI input port %q: %w", name, err)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI output port %q: %w", name, err)
	}
	return &Port{in: in, out: out}, nil
}

// Listen starts the MIDI reader (spec.md §4.5 "MIDI reader"): onFrame
// is called with each complete SysEx message's raw bytes, including
// the 0xF0...0xF7 bracket. It blocks the caller only long enough to
// register the listener; delivery happens on the driver's own
// goroutine, matching midi/v2's usual usage.
func (p *Port) Listen(onFrame func(frame []byte)) error {
	stop, err := midi.ListenTo(p.in, func(msg midi.Message, timestampms int32) {
		if msg.Type() != midi.SysExMsg {
			return
		}
		onFrame(msg.Bytes())
	}, midi.UseSysEx())
	if err != nil {
		return fmt.Errorf("listen on MIDI input: %w", err)
	}
	p.stop = stop
	return nil
}

// Write sends a complete SysEx frame (already bracketed). A failed
// write is the caller's concern to log; the Device Model is never
// rolled back for it (spec.md §5).
func (p *Port) Write(frame []byte) error {
	if err := p.out.Send(frame); err != nil {
		return fmt.Errorf("write MIDI SysEx frame: %w", err)
	}
	return nil
}

// Close stops the listener and closes both ports.
func (p *Port) Close() error {
	if p.stop != nil {
		p.stop()
	}
	inErr := p.in.Close()
	outErr := p.out.Close()
	if inErr != nil {
		return fmt.Errorf("close MIDI input port: %w", inErr)
	}
	if outErr != nil {
		return fmt.Errorf("close MIDI output port: %w", outErr)
	}
	return nil
}

// InPortNames lists available MIDI input port names, for diagnostics
// and for resolving an empty -p/MIDIPORT selector.
func InPortNames() []string {
	var names []string
	for _, p := range midi.InPorts() {
		names = append(names, p.String())
	}
	return names
}
