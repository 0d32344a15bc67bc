package regulator

import (
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// signal is one decoded fact about the supply state of a rail.
type signal uint8

const (
	sigFETDisabled signal = 1 << iota
	sigLinregOffset
	sigDCDCOffset
	sig5V
	sigDCDCEnabled
	sigLinregEnabled
)

// sourceRule reports Source when every signal in Requires is present.
type sourceRule struct {
	Requires signal
	Source   power.Source
}

// Rules are checked in order; the first match wins.
var sourceRules = map[Class][]sourceRule{
	ClassIO: {
		{sigFETDisabled | sigLinregOffset, power.LinregDCDCOff},
		{sig5V | sigDCDCEnabled, power.DCDCLinregReady},
		{sig5V, power.LinregDCDCReady},
		{sigDCDCOffset, power.DCDCLinregOn},
	},
	ClassAnalogLogic: {
		{sigFETDisabled | sig5V, power.External5V},
		{sigFETDisabled | sigLinregOffset, power.LinregDCDCOff},
		{sig5V | sigDCDCEnabled, power.DCDCLinregOn},
		{sig5V, power.LinregDCDCOff},
		{sigDCDCOffset | sigLinregEnabled, power.DCDCLinregOn},
		{sigDCDCOffset, power.DCDCLinregOff},
	},
}

// signals samples the registers a rail's source depends on. It only reads.
func signals(b reg.Bank, d *Descriptor) signal {
	ctrl := b.Read(d.Control)
	sts := b.Read(d.Status)
	fiveV := b.Read(d.FiveVolt)

	var s signal
	if d.DisableFETMask != 0 && ctrl&d.DisableFETMask != 0 {
		s |= sigFETDisabled
	}
	if d.LinregOffsetMask != 0 {
		switch reg.Field(ctrl, d.LinregOffsetMask, d.LinregOffsetShift) {
		case power.LinregOffsetLinregMode:
			s |= sigLinregOffset
		case power.LinregOffsetDCDCMode:
			s |= sigDCDCOffset
		}
	}
	if d.EnableLinregMask != 0 && ctrl&d.EnableLinregMask != 0 {
		s |= sigLinregEnabled
	}
	if sts&power.StatusVDD5VGtVDDIO != 0 {
		s |= sig5V
	}
	if fiveV&power.FiveVEnableDCDC != 0 {
		s |= sigDCDCEnabled
	}
	return s
}

// decodeSource maps the sampled signals to a source. States that match no
// rule decode to power.Unknown, which is not an error.
func decodeSource(class Class, s signal) power.Source {
	for _, r := range sourceRules[class] {
		if s&r.Requires == r.Requires {
			return r.Source
		}
	}
	return power.Unknown
}
