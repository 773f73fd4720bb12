package sysex

// MaxFrameSize is the MIDI reassembly buffer size. Frames larger than
// this are dropped and the decoder resyncs on the next Start byte.
const MaxFrameSize = 8192

// BuildFrame wraps a register-write payload (raw, pre-base128) into a
// complete SysEx message: F0 00 20 0D 10 <subid> <base128 payload> F7.
func BuildFrame(sub SubID, rawPayload []byte) []byte {
	packed := EncodeBase128(rawPayload)
	frame := make([]byte, 0, 7+len(packed))
	frame = append(frame, Start, 0x00, 0x20, 0x0D, DeviceID, byte(sub))
	frame = append(frame, packed...)
	frame = append(frame, End)
	return frame
}

// BuildRegisterWriteFrame builds the complete SysEx frame for a single
// register write (addr, value).
func BuildRegisterWriteFrame(addr, value uint16) []byte {
	return BuildFrame(SubIDRegisters, EncodeRegisterPayload(addr, value))
}

// ParsedFrame is one fully unwrapped SysEx message.
type ParsedFrame struct {
	Sub     SubID
	Payload []byte // base128-decoded raw bytes
}

// ParseFrame unwraps one complete F0...F7 buffer (brackets included).
// It validates framing, the manufacturer/device ID, and the overall
// size, then base128-decodes the payload. It never panics; any
// structural problem is reported via the Outcome.
func ParseFrame(frame []byte) (ParsedFrame, Outcome) {
	if len(frame) > MaxFrameSize {
		return ParsedFrame{}, ShortFrame
	}
	if len(frame) < 8 {
		return ParsedFrame{}, ShortFrame
	}
	if frame[0] != Start || frame[len(frame)-1] != End {
		return ParsedFrame{}, ShortFrame
	}
	if frame[1] != 0x00 || frame[2] != 0x20 || frame[3] != 0x0D {
		return ParsedFrame{}, UnknownSubID
	}
	if frame[4] != DeviceID {
		return ParsedFrame{}, UnknownSubID
	}
	sub := SubID(frame[5])
	switch sub {
	case SubIDRegisters, SubIDPreFXInput, SubIDPlayback, SubIDPreFXOutput, SubIDPostFXInput, SubIDPostFXOutput:
	default:
		return ParsedFrame{}, UnknownSubID
	}
	packed := frame[6 : len(frame)-1]
	payload := DecodeBase128(packed)
	return ParsedFrame{Sub: sub, Payload: payload}, OK
}

// Reassembler accumulates raw MIDI bytes from a stream-oriented
// transport and emits complete SysEx frames as they close. It resyncs
// on Start whenever the in-progress buffer overflows MaxFrameSize,
// matching spec.md §5's oversize-frame handling.
type Reassembler struct {
	buf      []byte
	building bool
}

// Feed appends incoming raw MIDI bytes and returns zero or more
// complete frames found in the stream, plus any oversize-drop warnings
// encountered along the way (as Outcome values, always ShortFrame for
// "dropped, resyncing").
func (r *Reassembler) Feed(data []byte) (frames [][]byte, warnings []Outcome) {
	for _, b := range data {
		switch {
		case b == Start:
			r.buf = []byte{Start}
			r.building = true
		case r.building && b == End:
			r.buf = append(r.buf, End)
			frames = append(frames, r.buf)
			r.buf = nil
			r.building = false
		case r.building:
			r.buf = append(r.buf, b)
			if len(r.buf) > MaxFrameSize {
				warnings = append(warnings, ShortFrame)
				r.buf = nil
				r.building = false
			}
		}
	}
	return frames, warnings
}
