// Package thermostat implements the virtual thermostat driver, a
// hysteresis controller over mapped actuator and sensor properties.
//
// The driver keeps an in-memory snapshot of every actor, sensor and
// opening it is wired to, rebuilt on Connect and discarded on
// Disconnect. One Process tick is pure decision logic over that
// snapshot; the decisions leave the driver only as queued state
// messages, never as direct writes.
//
//	           +----------------------------------------------+
//	           |                control tick                  |
//	           |                                              |
//	 sensors --+-> mean/min/max --> interlocks --> mode logic-+--> queue
//	           |    openings open?   floor hot?   hysteresis  |
//	           +----------------------------------------------+
//
// Interlocks are checked in a fixed order and each one short-circuits
// the rest of the tick: open windows first, then off mode, then floor
// overheat. Turning heaters on is always preceded by the floor
// overheat check, so a hot floor can never race a heating decision.
//
// Inbound paths:
//   - WriteState applies commanded values to the thermostat's own
//     dynamic properties (mode, preset, target temperatures).
//   - NotifyState feeds observed values of mapped actuator and sensor
//     properties into the cached snapshot.
package thermostat
