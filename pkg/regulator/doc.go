// Package regulator implements the MXS regulator control engine.
//
// An Engine is built once from a register Bank and a table of rail
// Descriptors and lives for the process lifetime. Each Rail exposes:
//
//   - Source: which physical supply currently feeds the rail, decoded from
//     the control, status and 5V registers.
//   - SetVoltage / Voltage: the linear voltage law uV = min + sel*step, with
//     a bounded poll ladder waiting for the DC-DC converter to report DC_OK.
//   - SetMode / Mode: NORMAL keeps the hardware stepping gradually between
//     targets, FAST disables stepping.
//   - SetCurrentLimit / TrySetCurrentLimit / CurrentLimit: reservations in
//     the current budget tree (see package budget).
//
// Engine.Notify is the entry point for external events that move a rail's
// current ceiling (see package notify).
//
// # Voltage Transitions
//
// SetVoltage writes the new selector and then:
//
//  1. If the rail is fed by its linear regulator or by external 5V, waits a
//     fixed settle delay. DC_OK says nothing about those sources.
//  2. Otherwise polls DC_OK in a short burst, re-issues the write in case
//     the first one was not latched, and polls again with a longer budget,
//     yielding between checks.
//
// On ErrTimeout the selector has still been written: the request was
// issued, convergence could not be confirmed.
//
// # Concurrency
//
// Reads take no lock. Writes to a rail's control register are serialized per
// rail. Current reservations are serialized per budget node, and a caller
// blocked on budget never holds a lock another rail needs.
package regulator
