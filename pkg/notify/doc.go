// Package notify delivers external power events to the regulator engine.
//
// The only runtime path that changes a rail's current ceiling is an Event
// delivered to a Sink (the regulator engine implements Sink). Events come
// from outside the engine: a USB host attaching or detaching, a charger
// negotiating a new input limit, or an operator.
//
// # Components
//
//   - Dispatcher queues events and delivers them to the Sink from a single
//     goroutine, so producers such as interrupt pollers never block on the
//     budget tree.
//   - USBPolicy turns a VBUS state into the ceiling the aggregate rail may
//     draw: the USB host limit while attached, the external limit otherwise.
//   - VBUSWatcher polls the VBUS-valid interrupt and posts policy events.
package notify
