package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Filter selects trace events. Zero fields match everything; TimeEnd is
// exclusive.
type Filter struct {
	SessionID string
	Rail      string
	Category  *Category
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Match reports whether event passes the filter.
func (f Filter) Match(event Event) bool {
	switch {
	case f.SessionID != "" && event.SessionID != f.SessionID,
		f.Rail != "" && event.Rail != f.Rail,
		f.Category != nil && event.Category != *f.Category,
		f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Scan decodes the trace file at path and calls fn for every event matching
// filter, in file order. It stops at the first error from fn.
func Scan(path string, filter Filter, fn func(Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := NewDecoder(f)
	for n := 0; ; n++ {
		var event Event
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("event %d: %w", n, err)
		}
		if !filter.Match(event) {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
