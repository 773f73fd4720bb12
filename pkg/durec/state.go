// Package durec models RME's Direct USB Recording feature: on-device
// recorder transport, file list, and playmode (spec.md §4.4). The
// state shape (named constants + a String method) is adapted from the
// teacher's pkg/yardstick/radio.go MARCSTATE handling; unlike that
// polling loop, DURec transitions here are driven entirely by inbound
// register updates — the bridge never invents a transition.
package durec

// State is one DURec transport state. Values are ordered to match the
// raw register encoding the device reports in its status word.
type State uint8

const (
	NoMedia State = iota
	FsError
	Initializing
	Reinitializing
	Unknown
	Stopped
	Recording
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case NoMedia:
		return "NoMedia"
	case FsError:
		return "FsError"
	case Initializing:
		return "Initializing"
	case Reinitializing:
		return "Reinitializing"
	case Unknown:
		return "Unknown"
	case Stopped:
		return "Stopped"
	case Recording:
		return "Recording"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// stateFromRegister maps the raw status register value the device
// reports to a State. The device sends the state as the low byte of
// the status register; out-of-range values degrade to Unknown rather
// than panicking.
func stateFromRegister(raw uint16) State {
	v := State(raw & 0xFF)
	if v > Paused {
		return Unknown
	}
	return v
}

// Transport commands the mix/inputgain-style inbound coders issue as
// register writes (spec.md §4.2 "durec-*" coder table).
const (
	RegStatus       uint16 = 0x3E80
	RegPosition     uint16 = 0x3E81
	RegUSBLoad      uint16 = 0x3E82
	RegUSBErrors    uint16 = 0x3E83
	RegFreeSpace    uint16 = 0x3E84
	RegTotalSpace   uint16 = 0x3E85
	RegFileIndex    uint16 = 0x3E86
	RegPlaymode     uint16 = 0x3E87
	RegFileCount    uint16 = 0x3E88
	RegFileNameBase uint16 = 0x3E90 // one register per file slot name fragment

	CmdStop       uint16 = 0x8120
	CmdRecord     uint16 = 0x8122
	CmdPlay       uint16 = 0x8123
	CmdFileSelect uint16 = 0x3E9C // high bit (0x8000) set on the selected index
	CmdDelete     uint16 = 0x3E9B
)

// Status is the shadow projection of DURec state held by the device
// model (spec.md §3 "DURec state").
type Status struct {
	State           State
	Position        int
	USBLoad         int
	USBErrors       int
	FreeSpaceBytes  int64
	TotalSpaceBytes int64
	FileIndex       int
	Playmode        int
	Files           []string
}

// ApplyRegister updates Status in place from one decoded register
// update and reports whether anything changed (so the caller's
// change-detection can decide whether to notify). Any address it does
// not handle leaves Status unchanged and reports false; the Device
// Model passes every register it has no other projection for.
func (s *Status) ApplyRegister(addr, value uint16) (changed bool) {
	switch addr {
	case RegStatus:
		next := stateFromRegister(value)
		changed = next != s.State
		s.State = next
	case RegPosition:
		changed = int(value) != s.Position
		s.Position = int(value)
	case RegUSBLoad:
		changed = int(value) != s.USBLoad
		s.USBLoad = int(value)
	case RegUSBErrors:
		changed = int(value) != s.USBErrors
		s.USBErrors = int(value)
	case RegFileIndex:
		changed = int(value) != s.FileIndex
		s.FileIndex = int(value)
	case RegPlaymode:
		changed = int(value) != s.Playmode
		s.Playmode = int(value)
	case RegFileCount:
		changed = int(value) != len(s.Files)
		resized := make([]string, int(value))
		copy(resized, s.Files)
		s.Files = resized
	default:
		return false
	}
	return changed
}

// SetFileName fills in one entry of the (length-set-first) file list,
// per spec.md §3's DURec file-list lifecycle.
func (s *Status) SetFileName(index int, name string) {
	if index < 0 || index >= len(s.Files) {
		return
	}
	s.Files[index] = name
}
