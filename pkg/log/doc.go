// Package log provides the regulator event trace.
//
// The trace records every request that reaches the regulator engine: voltage
// transitions with the poll tier they finished in, mode changes, current
// budget reservations (including how long a caller waited) and external
// budget notifications. It is separate from operational logging (slog); the
// trace is a machine-readable record for post-mortem analysis of power
// sequencing problems.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	engine, _ := regulator.New(bank, descs, regulator.WithTrace(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to a binary file
//	trace, _ := log.NewFileLogger("/var/log/pmu/rails.rlog")
//
//	// Both
//	trace := log.Tee(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded Event values with integer keys
// (.rlog extension). The pmu-log tool views and summarizes them.
package log
