package mixer

// rateHz maps the device's encoded sample-rate index to Hz (spec.md
// §4.4): index 0 is 32000 Hz, and indices map 1:1 onto the entries in
// order.
var rateHz = []int{
	32000, 44100, 48000,
	64000, 88200, 96000,
	128000, 176400, 192000,
	352800, 384000,
	705600, 768000,
}

// SampleRateHz converts an encoded rate index to Hz. Unknown indices
// map to 0 and produce no notification (spec.md §4.4) — the caller is
// expected to treat a 0 result as "don't publish".
func SampleRateHz(index int) int {
	if index < 0 || index >= len(rateHz) {
		return 0
	}
	return rateHz[index]
}

// IndexForHz is SampleRateHz's inverse: it reports the encoded index
// for an exact Hz value, or ok=false if hz isn't one of the rates the
// device supports (spec.md §6 "/system/samplerate", "32000…192000 Hz").
func IndexForHz(hz int) (index int, ok bool) {
	for i, v := range rateHz {
		if v == hz {
			return i, true
		}
	}
	return 0, false
}
