package regulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

func TestDecodeSourceIO(t *testing.T) {
	tests := []struct {
		name string
		sig  signal
		want power.Source
	}{
		{"fet off in linreg offset", sigFETDisabled | sigLinregOffset, power.LinregDCDCOff},
		{"fet off wins over 5V", sigFETDisabled | sigLinregOffset | sig5V, power.LinregDCDCOff},
		{"5V with converter", sig5V | sigDCDCEnabled | sigDCDCOffset, power.DCDCLinregReady},
		{"5V without converter", sig5V, power.LinregDCDCReady},
		{"battery in dcdc offset", sigDCDCOffset, power.DCDCLinregOn},
		{"battery in linreg offset", sigLinregOffset, power.Unknown},
		{"nothing", 0, power.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeSource(ClassIO, tt.sig))
		})
	}
}

func TestDecodeSourceAnalogLogic(t *testing.T) {
	tests := []struct {
		name string
		sig  signal
		want power.Source
	}{
		{"fet off with 5V", sigFETDisabled | sig5V, power.External5V},
		{"fet off with 5V in linreg offset", sigFETDisabled | sig5V | sigLinregOffset, power.External5V},
		{"fet off in linreg offset", sigFETDisabled | sigLinregOffset, power.LinregDCDCOff},
		{"fet off in dcdc offset", sigFETDisabled | sigDCDCOffset, power.DCDCLinregOff},
		{"5V with converter", sig5V | sigDCDCEnabled, power.DCDCLinregOn},
		{"5V without converter", sig5V | sigDCDCOffset, power.LinregDCDCOff},
		{"dcdc offset linreg on", sigDCDCOffset | sigLinregEnabled, power.DCDCLinregOn},
		{"dcdc offset linreg off", sigDCDCOffset, power.DCDCLinregOff},
		{"linreg offset only", sigLinregOffset | sigLinregEnabled, power.Unknown},
		{"nothing", 0, power.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeSource(ClassAnalogLogic, tt.sig))
		})
	}
}

func TestDecodeSourceCurrentClass(t *testing.T) {
	assert.Equal(t, power.Unknown, decodeSource(ClassCurrent, sigFETDisabled|sig5V))
}

func TestSignalsFromRegisters(t *testing.T) {
	d := vddd(t)
	bank := reg.NewMemBank(reg.DefaultWindow)

	assert.Equal(t, sigLinregOffset, signals(bank, &d), "zeroed offset field is linreg mode")

	bank.Poke(power.RegVDDDCtrl, power.LinregOffsetDCDCMode<<power.VDDDLinregShift|
		power.VDDDEnableLinreg|power.VDDDDisableFET)
	bank.Poke(power.RegStatus, power.StatusVDD5VGtVDDIO)
	bank.Poke(power.Reg5VCtrl, power.FiveVEnableDCDC)

	assert.Equal(t, sigDCDCOffset|sigLinregEnabled|sigFETDisabled|sig5V|sigDCDCEnabled, signals(bank, &d))
	assert.Zero(t, bank.TotalWrites(), "decoding must not write")
}

func TestSignalsStepAboveOffset(t *testing.T) {
	d := vddd(t)
	bank := reg.NewMemBank(reg.DefaultWindow)
	bank.Poke(power.RegVDDDCtrl, power.LinregOffsetStepAbove<<power.VDDDLinregShift)

	s := signals(bank, &d)
	assert.Zero(t, s&(sigLinregOffset|sigDCDCOffset))
}
