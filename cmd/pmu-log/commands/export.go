package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// RunExport writes the trace file as JSON lines to output, or to w when
// output is empty.
func RunExport(path string, filter log.Filter, output string, w io.Writer) error {
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	encoder := json.NewEncoder(w)
	err := log.Scan(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to export trace file: %w", err)
	}
	return nil
}
