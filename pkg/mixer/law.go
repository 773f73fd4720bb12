// Package mixer implements the Translation Engine's mixer law: dB/pan/
// width conversion and the sample-rate lookup table (spec.md §4.4).
package mixer

import "math"

// NegativeInfinityTenthDB is the internal sentinel for "-infinity" gain,
// ≈ -65.0 dB (spec.md §3 invariants).
const NegativeInfinityTenthDB = -650

const (
	MinVolumeDB = -65.0
	MaxVolumeDB = 6.0
	MinPan      = -100
	MaxPan      = 100
	MinWidth    = 0.0
	MaxWidth    = 2.0
)

// ClampVolumeDB clamps vol to [-65.0, +6.0] and coerces anything at or
// below -65.0 to the "-infinity" sentinel (spec.md §3, §8 boundary:
// exactly -65.0 is -infinity; -64.9 clamps to -649 tenths-of-dB, not
// to the sentinel).
func ClampVolumeDB(vol float64) float64 {
	if vol <= MinVolumeDB {
		return math.Inf(-1)
	}
	if vol > MaxVolumeDB {
		return MaxVolumeDB
	}
	return vol
}

// VolumeTenthDB converts a clamped dB value to the signed 0.1 dB wire
// unit, applying the -infinity sentinel.
func VolumeTenthDB(vol float64) int {
	clamped := ClampVolumeDB(vol)
	if math.IsInf(clamped, -1) {
		return NegativeInfinityTenthDB
	}
	return int(math.Round(clamped * 10))
}

// ClampPan clamps pan to [-100, 100].
func ClampPan(pan int) int {
	if pan < MinPan {
		return MinPan
	}
	if pan > MaxPan {
		return MaxPan
	}
	return pan
}

// ClampWidth clamps width to [0, 2]. It has no notion of mono
// sources; the default width of 1 is set by the caller.
func ClampWidth(width float64) float64 {
	if width < MinWidth {
		return MinWidth
	}
	if width > MaxWidth {
		return MaxWidth
	}
	return width
}

// dBToLinear converts dB to a linear gain factor, 0 for -infinity.
func dBToLinear(db float64) float64 {
	if math.IsInf(db, -1) {
		return 0
	}
	return math.Pow(10, db/20)
}

// Send is one resolved mixer send: a linear gain for the left/mono
// half and the right half of a stereo pair.
type Send struct {
	Left, Right float64
}

// Law computes the mixer law of spec.md §4.4 steps 1-4 for a mono
// source (no width application — width only applies to stereo-linked
// sources, step 4).
func Law(volDB float64, pan int) Send {
	vol := ClampVolumeDB(volDB)
	p := ClampPan(pan)
	g := dBToLinear(vol)
	return Send{
		Left:  g * math.Min(1, 1-float64(p)/100),
		Right: g * math.Min(1, 1+float64(p)/100),
	}
}

// StereoLaw computes the mixer law for a stereo-linked source,
// including step 4's mid/side width scaling. The per-side gains
// before width is applied are Law(volDB, pan); both halves of the
// pair share that one vol/pan control.
func StereoLaw(volDB float64, pan int, width float64) Send {
	base := Law(volDB, pan)
	w := ClampWidth(width)

	mid := (base.Left + base.Right) / 2
	side := (base.Left - base.Right) / 2 * w

	return Send{
		Left:  mid + side,
		Right: mid - side,
	}
}

// WireVolume packs a 0.1 dB volume for the wire as a 15-bit two's
// complement value with bit15 cleared, so a volume word (negative
// ones included) never carries the pan marker bit.
func WireVolume(volDB float64) uint16 {
	return uint16(VolumeTenthDB(volDB)) & 0x7FFF
}

// DecodeVolumeTenthDB is the inverse of WireVolume: it sign-extends
// the low 15 bits and ignores bit15.
func DecodeVolumeTenthDB(raw uint16) int {
	v := int(raw & 0x7FFF)
	if v&0x4000 != 0 {
		v -= 0x8000
	}
	return v
}

// WirePan packs a pan value for the wire: the value lives in the low
// byte as a signed char (spec.md §3 "signed char pan"), and bit15 is
// always forced to mark it a pan update rather than a volume update.
func WirePan(pan int) uint16 {
	p := ClampPan(pan)
	return uint16(uint8(int8(p))) | 0x8000
}

// DecodePan is the inverse of WirePan.
func DecodePan(raw uint16) int {
	return int(int8(uint8(raw & 0xFF)))
}

// IsPanWord reports whether a raw mixer-cell wire value is a pan
// update (high bit set) rather than a volume update.
func IsPanWord(raw uint16) bool {
	return raw&0x8000 != 0
}
