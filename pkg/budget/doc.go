// Package budget implements the hierarchical current budget.
//
// A Tree holds one Node per rail taking part in current arbitration. Each
// node has a ceiling (max) and a reservation (cur), and the invariant
// cur <= max holds for every node at all times. A child changes its own
// reservation only after its parent has accepted the same delta, so the sum
// a parent hands out can never exceed what it may supply.
//
// # Blocking
//
// Set with wait=true parks the caller on the parent's condition variable
// until the reservation fits. Waiters are woken when a sibling releases
// budget or when the parent's ceiling is raised. There is no timeout: a
// caller that gives up must release its claim explicitly by calling Set
// with a smaller value.
//
// # Lowering a Ceiling
//
// A ceiling lowered below the current reservation cannot take effect at
// once without breaking cur <= max. The requested ceiling is kept as a
// target, the effective ceiling is clamped to the reservation, and every
// later release moves the effective ceiling down toward the target.
package budget
