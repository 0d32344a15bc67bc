// Package power describes the MXS power block register map and the
// supply-level helpers that sit next to the regulators: the DC-DC converter
// clock, 5V (VBUS) presence and the VBUS-valid interrupt.
//
// # Power Sources
//
// A rail can be fed by its linear regulator, by the DC-DC converter, or
// directly from an external 5V or battery supply. Source enumerates the
// combinations the regulator decoder can report. Unknown is a valid result,
// meaning the register state matches no known pattern; callers assume the
// converter is involved.
//
// # DC-DC Clock
//
// The converter is clocked either by the 24 MHz crystal or by a PLL-derived
// frequency selected in HW_POWER_MISC. Only 19.2, 20 and 24 MHz are accepted.
package power
