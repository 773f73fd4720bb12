package engine

import (
	"context"
	"time"

	"github.com/gherlein/oscmix/pkg/oscio"
	"github.com/gherlein/oscmix/pkg/sysex"
)

// meterTickInterval is the periodic tick's period (spec.md §4.5
// "every 100 ms").
const meterTickInterval = 100 * time.Millisecond

// housekeep runs the tick's two duties (spec.md §4.5 "Periodic tick"):
// (a) request the next batch of level frames if metering is enabled,
// (b) service other housekeeping. There is no (b) work yet; this is
// the seam future housekeeping (watchdogs, reconnect backoff) would
// hang off.
func (e *Engine) housekeep() {
	if !e.metersEnabled {
		return
	}
	e.writeRegister(LevelRequestReg, 1)
}

// Run starts the MIDI reader, the OSC reader, and the periodic tick,
// and blocks until ctx is cancelled (spec.md §4.5 "Scheduler /
// Dispatcher"). All three activities funnel through Engine's methods,
// which serialize on the Device Model's exclusive section
// (devicemodel.Model.Lock/Unlock via WriteRegister/ApplyRegisterWord).
func (e *Engine) Run(ctx context.Context, oscReader *oscio.Reader) error {
	if err := e.midi.Listen(func(frame []byte) {
		e.HandleMIDIFrame(frame)
	}); err != nil {
		return err
	}

	oscErrs := make(chan error, 1)
	go e.runOSCReader(ctx, oscReader, oscErrs)

	ticker := time.NewTicker(meterTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-oscErrs:
			return err
		case <-ticker.C:
			e.housekeep()
		}
	}
}

func (e *Engine) runOSCReader(ctx context.Context, r *oscio.Reader, errs chan<- error) {
	buf := make([]byte, sysex.MaxFrameSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		packet, err := r.Read(buf)
		if err != nil {
			e.logger.Warn("transport error", "context", "OSC read", "err", err)
			continue
		}
		e.HandleOSCPacket(packet)
	}
}
