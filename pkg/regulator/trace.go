package regulator

import (
	"time"

	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// emit stamps ev with the engine session and rail identity and sends it to
// the trace sink.
func (r *Rail) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = r.engine.session
	ev.Rail = r.desc.Name
	ev.RailID = uint8(r.desc.ID)
	r.engine.trace.Log(ev)
}

func (r *Rail) traceVoltage(v *log.VoltageEvent) {
	r.emit(log.Event{Category: log.CategoryVoltage, Voltage: v})
}

func (r *Rail) traceMode(m Mode, o log.Outcome) {
	r.emit(log.Event{Category: log.CategoryMode, Mode: &log.ModeEvent{Mode: m.String(), Outcome: o}})
}
