package devicemodel

// ObserverCategory names one of the six fixed notification categories
// spec.md §4.3 requires (DSP, DURec, sample-rate, input, output,
// mixer). Per §9's REDESIGN FLAGS, this replaces the original's
// fixed-size callback-array roster with a typed dispatch: at most one
// subscriber per category, addressed by an explicit tag rather than a
// hand-rolled linear search over a callback array.
type ObserverCategory int

const (
	ObserveDSP ObserverCategory = iota
	ObserveDURec
	ObserveSampleRate
	ObserveInput
	ObserveOutput
	ObserveMixer
	observerCategoryCount
)

// Event is one notification fanned out to a subscriber. Index/Index2
// meaning depends on Category: for ObserveInput/ObserveOutput, Index
// is the 0-based channel; for ObserveMixer, Index is the output bus
// and Index2 the input send; DURec/SampleRate ignore both, and DSP
// ignores both except that Index -1 marks the refresh-done event. Field
// names which Shadow attribute changed (e.g. "gain", "mute", "name")
// so a subscriber can publish exactly the OSC address that changed
// instead of the whole channel's state.
type Event struct {
	Category ObserverCategory
	Index    int
	Index2   int
	Field    string
}

// Observer receives fanned-out Device Model events.
type Observer func(Event)

// ObserverRoster holds at most one Observer per category. Registration
// is idempotent (registering twice for the same category replaces the
// prior subscriber, it does not stack); unregistration clears the
// slot. This is the "small fixed roster of six categories" from
// spec.md §4.3.
type ObserverRoster struct {
	slots [observerCategoryCount]Observer
}

// Register sets the subscriber for category, replacing any existing
// one.
func (r *ObserverRoster) Register(category ObserverCategory, fn Observer) {
	if category < 0 || category >= observerCategoryCount {
		return
	}
	r.slots[category] = fn
}

// Unregister clears the subscriber for category, if any.
func (r *ObserverRoster) Unregister(category ObserverCategory) {
	r.Register(category, nil)
}

// Enabled reports whether category currently has a subscriber.
func (r *ObserverRoster) Enabled(category ObserverCategory) bool {
	if category < 0 || category >= observerCategoryCount {
		return false
	}
	return r.slots[category] != nil
}

// notify dispatches ev to its category's subscriber, if registered.
// The Model never calls this while refreshing, except for the
// refresh-done sentinel itself (spec.md §4.3).
func (r *ObserverRoster) notify(ev Event) {
	if fn := r.slots[ev.Category]; fn != nil {
		fn(ev)
	}
}
