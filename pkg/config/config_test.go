package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxs-pmu/pmu-go/pkg/notify"
	"github.com/mxs-pmu/pmu-go/pkg/regulator"
)

const board = `
model: imx28
base_address: 0x80044000
dcdc_pll_khz: 24000
trace: /tmp/pmu.cbor
rails:
  overall_current:
    max_ua: 1500000
  vddd:
    min_uv: 1000000
    max_uv: 1550000
    max_ua: 400000
consumers:
  - name: lcd
    max_ua: 200000
  - name: wifi
    id: 20
    max_ua: 300000
usb:
  host_ua: 450000
  external_ua: 1500000
  poll_interval: 25ms
timing:
  slow_timeout: 40ms
  settle_delay: 2ms
`

func byName(ds []regulator.Descriptor) map[string]regulator.Descriptor {
	out := make(map[string]regulator.Descriptor, len(ds))
	for _, d := range ds {
		out[d.Name] = d
	}
	return out
}

func TestParseBoard(t *testing.T) {
	cfg, err := Parse([]byte(board))
	require.NoError(t, err)

	assert.Equal(t, uint64(0x80044000), cfg.BaseAddress)
	assert.Equal(t, 24000, cfg.DCDCPLLKHz)
	assert.Equal(t, "/tmp/pmu.cbor", cfg.Trace)

	ds, err := cfg.Descriptors()
	require.NoError(t, err)
	rails := byName(ds)
	require.Len(t, rails, 6)

	vddd := rails[regulator.NameVDDD]
	assert.Equal(t, 1000000, vddd.MinAllowedMicroVolts)
	assert.Equal(t, 1550000, vddd.MaxAllowedMicroVolts)
	assert.Equal(t, 800000, vddd.MinMicroVolts, "law unchanged")
	assert.Equal(t, int64(400000), vddd.MaxMicroAmps)

	assert.Equal(t, int64(1500000), rails[regulator.NameOverallCurrent].MaxMicroAmps)

	lcd := rails["lcd"]
	assert.Equal(t, regulator.FirstBoardID, lcd.ID)
	assert.Equal(t, regulator.ClassCurrent, lcd.Class)
	assert.Equal(t, regulator.NameOverallCurrent, lcd.Parent)
	assert.Equal(t, regulator.ID(20), rails["wifi"].ID)
}

func TestTimingOverrides(t *testing.T) {
	cfg, err := Parse([]byte(board))
	require.NoError(t, err)

	tm, err := cfg.RegulatorTiming()
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, tm.SlowTimeout)
	assert.Equal(t, 2*time.Millisecond, tm.SettleDelay)
	assert.Equal(t, regulator.DefaultTiming().FastPolls, tm.FastPolls)
}

func TestUSBPolicy(t *testing.T) {
	cfg, err := Parse([]byte(board))
	require.NoError(t, err)

	p, interval, ok := cfg.USBPolicy()
	require.True(t, ok)
	assert.Equal(t, regulator.NameOverallCurrent, p.Rail)
	assert.Equal(t, int64(450000), p.HostMicroAmps)
	assert.Equal(t, int64(1500000), p.ExternalMicroAmps)
	assert.Equal(t, 25*time.Millisecond, interval)

	cfg, err = Parse([]byte("usb: {}\n"))
	require.NoError(t, err)
	p, _, ok = cfg.USBPolicy()
	require.True(t, ok)
	assert.Equal(t, int64(notify.DefaultHostMicroAmps), p.HostMicroAmps)
	assert.Equal(t, int64(regulator.UnlimitedMicroAmps), p.ExternalMicroAmps)

	_, _, ok = Default().USBPolicy()
	assert.False(t, ok)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)

	ds, err := cfg.Descriptors()
	require.NoError(t, err)
	assert.Len(t, ds, 4)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown model", "model: imx6\n"},
		{"unknown rail", "rails:\n  vddmem:\n    max_ua: 1\n"},
		{"voltage on current rail", "rails:\n  overall_current:\n    min_uv: 1\n"},
		{"bounds outside law", "rails:\n  vddd:\n    max_uv: 2000000\n"},
		{"negative current", "rails:\n  vdda:\n    max_ua: -5\n"},
		{"bad pll", "dcdc_pll_khz: 12000\n"},
		{"bad timing", "timing:\n  fast_polls: -1\n"},
		{"negative usb", "usb:\n  host_ua: -1\n"},
		{"consumer without ceiling", "consumers:\n  - name: lcd\n"},
		{"consumer id too low", "consumers:\n  - name: lcd\n    id: 3\n    max_ua: 1\n"},
		{"consumer duplicate name", "consumers:\n  - name: vddd\n    max_ua: 1\n"},
		{"consumer missing parent", "consumers:\n  - name: lcd\n    parent: battery\n    max_ua: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("rails: [\n"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "failed to parse YAML", le.Message)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(board), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "imx28", cfg.Model)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("model: imx6\n"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, bad, le.File)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDescriptorsBuildEngine(t *testing.T) {
	cfg, err := Parse([]byte(board))
	require.NoError(t, err)
	ds, err := cfg.Descriptors()
	require.NoError(t, err)

	assert.NoError(t, regulator.ValidateTable(ds))
}
