package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mxs-pmu/pmu-go/pkg/notify"
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/regulator"
)

// DefaultModel is used when the file names none.
const DefaultModel = "imx28"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid board config")

// LoadError reports a file that could not be read or parsed.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Config is a board description.
type Config struct {
	Model       string `yaml:"model"`
	BaseAddress uint64 `yaml:"base_address"`
	DevicesDir  string `yaml:"devices_dir"`
	DCDCPLLKHz  int    `yaml:"dcdc_pll_khz"`
	Trace       string `yaml:"trace"`

	Rails     map[string]RailOverride `yaml:"rails"`
	Consumers []Consumer              `yaml:"consumers"`
	USB       *USB                    `yaml:"usb"`
	Timing    Timing                  `yaml:"timing"`
}

// RailOverride narrows a model rail. Zero fields keep the model value.
type RailOverride struct {
	MinMicroVolts int    `yaml:"min_uv"`
	MaxMicroVolts int    `yaml:"max_uv"`
	MaxMicroAmps  int64  `yaml:"max_ua"`
	Parent        string `yaml:"parent"`
}

// Consumer is a board current consumer without voltage control.
type Consumer struct {
	Name         string `yaml:"name"`
	ID           uint8  `yaml:"id"`
	Parent       string `yaml:"parent"`
	MaxMicroAmps int64  `yaml:"max_ua"`
}

// USB holds the VBUS policy.
type USB struct {
	Rail              string        `yaml:"rail"`
	HostMicroAmps     int64         `yaml:"host_ua"`
	ExternalMicroAmps int64         `yaml:"external_ua"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

// Timing overrides the voltage poll ladder.
type Timing struct {
	FastPolls    int           `yaml:"fast_polls"`
	FastInterval time.Duration `yaml:"fast_interval"`
	SlowTimeout  time.Duration `yaml:"slow_timeout"`
	SlowInterval time.Duration `yaml:"slow_interval"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

// Load reads and validates a board file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: "invalid config", Cause: err}
	}
	return cfg, nil
}

// Parse decodes and validates a board description.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a board file.
func Default() *Config {
	return &Config{Model: DefaultModel}
}

// Validate checks the file on its own and against its model. It builds the
// merged rail table, so a config that validates also yields Descriptors.
func (c *Config) Validate() error {
	if c.DCDCPLLKHz != 0 {
		switch c.DCDCPLLKHz {
		case power.Clock19200KHz, power.Clock20000KHz, power.Clock24000KHz:
		default:
			return fmt.Errorf("%w: dcdc_pll_khz %d (use 19200, 20000 or 24000)", ErrInvalidConfig, c.DCDCPLLKHz)
		}
	}
	if c.USB != nil {
		if c.USB.HostMicroAmps < 0 || c.USB.ExternalMicroAmps < 0 || c.USB.PollInterval < 0 {
			return fmt.Errorf("%w: negative usb value", ErrInvalidConfig)
		}
	}
	if _, err := c.RegulatorTiming(); err != nil {
		return fmt.Errorf("%w: timing: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Descriptors(); err != nil {
		return err
	}
	return nil
}

// Descriptors merges the model's rail table with the overrides and
// consumers. Consumers without an id are numbered from
// regulator.FirstBoardID in file order.
func (c *Config) Descriptors() ([]regulator.Descriptor, error) {
	model, err := regulator.LookupModel(c.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	rails := model.Rails

	index := make(map[string]int, len(rails))
	for i := range rails {
		index[rails[i].Name] = i
	}

	// Map iteration order must not leak into error messages.
	names := make([]string, 0, len(c.Rails))
	for name := range c.Rails {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := c.Rails[name]
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: rail %s is not part of model %s", ErrInvalidConfig, name, model.Name)
		}
		d := &rails[i]
		if o.MinMicroVolts != 0 || o.MaxMicroVolts != 0 {
			if !d.HasVoltage() {
				return nil, fmt.Errorf("%w: rail %s has no voltage control", ErrInvalidConfig, name)
			}
			d.MinAllowedMicroVolts = o.MinMicroVolts
			d.MaxAllowedMicroVolts = o.MaxMicroVolts
		}
		if o.MaxMicroAmps < 0 {
			return nil, fmt.Errorf("%w: rail %s negative max_ua", ErrInvalidConfig, name)
		}
		if o.MaxMicroAmps != 0 {
			d.MaxMicroAmps = o.MaxMicroAmps
		}
		if o.Parent != "" {
			d.Parent = o.Parent
		}
	}

	next := regulator.FirstBoardID
	for _, cons := range c.Consumers {
		id := regulator.ID(cons.ID)
		if id == 0 {
			id = next
			next++
		} else if id < regulator.FirstBoardID {
			return nil, fmt.Errorf("%w: consumer %s id %d below %d", ErrInvalidConfig, cons.Name, id, regulator.FirstBoardID)
		}
		parent := cons.Parent
		if parent == "" {
			parent = regulator.NameOverallCurrent
		}
		rails = append(rails, regulator.Descriptor{
			ID:           id,
			Name:         cons.Name,
			Class:        regulator.ClassCurrent,
			Parent:       parent,
			MaxMicroAmps: cons.MaxMicroAmps,
		})
	}

	if err := regulator.ValidateTable(rails); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return rails, nil
}

// RegulatorTiming returns the poll ladder with the overrides applied.
func (c *Config) RegulatorTiming() (regulator.Timing, error) {
	t := regulator.DefaultTiming()
	o := c.Timing
	if o.FastPolls != 0 {
		t.FastPolls = o.FastPolls
	}
	if o.FastInterval != 0 {
		t.FastInterval = o.FastInterval
	}
	if o.SlowTimeout != 0 {
		t.SlowTimeout = o.SlowTimeout
	}
	if o.SlowInterval != 0 {
		t.SlowInterval = o.SlowInterval
	}
	if o.SettleDelay != 0 {
		t.SettleDelay = o.SettleDelay
	}
	return t, t.Validate()
}

// USBPolicy returns the VBUS policy, or false when the file has no usb
// section.
func (c *Config) USBPolicy() (notify.USBPolicy, time.Duration, bool) {
	if c.USB == nil {
		return notify.USBPolicy{}, 0, false
	}
	rail := c.USB.Rail
	if rail == "" {
		rail = regulator.NameOverallCurrent
	}
	p := notify.NewUSBPolicy(rail, c.USB.ExternalMicroAmps)
	if c.USB.HostMicroAmps != 0 {
		p.HostMicroAmps = c.USB.HostMicroAmps
	}
	if p.ExternalMicroAmps == 0 {
		p.ExternalMicroAmps = regulator.UnlimitedMicroAmps
	}
	return p, c.USB.PollInterval, true
}
