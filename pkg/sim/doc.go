// Package sim simulates the power block for tests and for running pmu-ctl
// without hardware.
//
// A PowerBlock is a reg.Bank backed by reg.MemBank. Writes that change a
// rail's target drop DC_OK in the status register and raise it again after
// the configured settling latency, which is shorter while stepping is
// disabled. The converter can be made to hang, the next writes can be
// dropped as if never latched, and VBUS can be attached or detached, which
// raises the VBUS-valid interrupt when it is armed for that edge.
package sim
