package log

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func sampleEvents(ts time.Time) []Event {
	return []Event{
		{
			Timestamp: ts,
			SessionID: "sess-a",
			Category:  CategoryVoltage,
			Rail:      "vddd",
			RailID:    3,
			Voltage: &VoltageEvent{
				TargetMicroVolts: 1000000,
				Selector:         8,
				Source:           "DCDC_LINREG_ON",
				Tier:             TierFast,
				Polls:            3,
				Outcome:          OutcomeOK,
				Elapsed:          4 * time.Microsecond,
			},
		},
		{
			Timestamp: ts.Add(time.Millisecond),
			SessionID: "sess-a",
			Category:  CategoryBudget,
			Rail:      "charger",
			Budget: &BudgetEvent{
				RequestedMicroAmps: 200000,
				Parent:             "overall_current",
				Waits:              1,
				Outcome:            OutcomeOK,
				Blocked:            2 * time.Millisecond,
			},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond),
			SessionID: "sess-b",
			Category:  CategoryNotify,
			Rail:      "overall_current",
			Notify: &NotifyEvent{
				Kind:           "BUDGET_LOWERED",
				OldMaxMicroAmp: 1500000,
				NewMaxMicroAmp: 500000,
				Origin:         "vbus",
			},
		},
	}
}

func TestEncodeDecodeKeepsPayloadAndNanoseconds(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	in := sampleEvents(ts)[0]

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(in); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out Event
	if err := NewDecoder(&buf).Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !out.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", out.Timestamp, ts)
	}
	if out.Voltage == nil {
		t.Fatal("Voltage payload lost")
	}
	if *out.Voltage != *in.Voltage {
		t.Errorf("Voltage = %+v, want %+v", *out.Voltage, *in.Voltage)
	}
	if out.Budget != nil || out.Notify != nil {
		t.Error("unexpected payloads decoded")
	}
}

func TestFileLoggerAndFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rails.rlog")
	ts := time.Now().UTC()

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, ev := range sampleEvents(ts) {
		fl.Log(ev)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closed logger drops events and double close is fine.
	fl.Log(Event{})
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fl.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", fl.Dropped())
	}

	countMatching := func(filter Filter) int {
		t.Helper()
		n := 0
		if err := Scan(path, filter, func(Event) error { n++; return nil }); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		return n
	}

	budget := CategoryBudget
	end := ts.Add(2 * time.Millisecond)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"All", Filter{}, 3},
		{"Session", Filter{SessionID: "sess-a"}, 2},
		{"Rail", Filter{Rail: "vddd"}, 1},
		{"Category", Filter{Category: &budget}, 1},
		{"TimeEndExclusive", Filter{TimeEnd: &end}, 2},
		{"TimeStart", Filter{TimeStart: &end}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countMatching(tt.filter); got != tt.want {
				t.Errorf("matched %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestScanStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rails.rlog")
	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, ev := range sampleEvents(time.Now()) {
		fl.Log(ev)
	}
	fl.Close()

	stop := errors.New("stop")
	n := 0
	err = Scan(path, Filter{}, func(Event) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Scan = (%v, %d calls), want (stop, 1)", err, n)
	}

	if err := Scan(filepath.Join(t.TempDir(), "none"), Filter{}, func(Event) error { return nil }); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScanReportsCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rails.rlog")
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(sampleEvents(time.Now())[0]); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{0xbf, 0x01})
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	n := 0
	err := Scan(path, Filter{}, func(Event) error { n++; return nil })
	if err == nil || n != 1 {
		t.Errorf("Scan = (%v, %d events), want an error after 1 event", err, n)
	}
}

func TestTeeSkipsNil(t *testing.T) {
	if _, ok := Tee(nil).(NoopLogger); !ok {
		t.Error("Tee of nothing should discard")
	}

	a := &MemoryLogger{}
	b := &MemoryLogger{}
	m := Tee(a, nil, b)

	m.Log(Event{Category: CategoryMode, Mode: &ModeEvent{Mode: "FAST"}})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("fan-out = (%d, %d), want (1, 1)", len(a.Events()), len(b.Events()))
	}
}

func TestMemoryLoggerConcurrent(t *testing.T) {
	m := &MemoryLogger{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Log(Event{Category: CategoryBudget})
		}()
	}
	wg.Wait()

	if got := len(m.Events()); got != 50 {
		t.Errorf("len(Events()) = %d, want 50", got)
	}
	if _, ok := m.Last(CategoryVoltage); ok {
		t.Error("Last(CategoryVoltage) found an event")
	}
	m.Reset()
	if len(m.Events()) != 0 {
		t.Error("Reset left events behind")
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := NewSlogAdapter(logger)

	for _, ev := range sampleEvents(time.Now()) {
		a.Log(ev)
	}
	a.Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "boom", Context: "vbus"}})

	out := buf.String()
	for _, want := range []string{
		"rail=vddd", "tier=FAST", "target_uv=1000000",
		"parent=overall_current", "waits=1",
		"kind=BUDGET_LOWERED", "origin=vbus",
		"error_msg=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	if CategoryNotify.String() != "NOTIFY" || Category(99).String() != "UNKNOWN" {
		t.Error("Category.String mismatch")
	}
	if OutcomeOutOfBudget.String() != "OUT_OF_BUDGET" || OutcomeSuperseded.String() != "SUPERSEDED" || Outcome(99).String() != "UNKNOWN" {
		t.Error("Outcome.String mismatch")
	}
	if TierSlow.String() != "SLOW" || Tier(99).String() != "UNKNOWN" {
		t.Error("Tier.String mismatch")
	}
}

func TestNoopLogger(t *testing.T) {
	var l NoopLogger
	l.Log(Event{})
}
