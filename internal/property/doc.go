// Package property models the observable and controllable points of a
// virtual device.
//
// A property belongs to a channel and comes in one of three kinds:
//
//	dynamic   device-native runtime state (actual/expected values, validity)
//	variable  static configuration (tolerances, thresholds)
//	mapped    alias onto another device's dynamic property, with a value
//	          transform when data types differ
//
// Architecture:
//
//	┌────────────┐   ReadValue/SetValue   ┌──────────────┐
//	│  Drivers,  │ ─────────────────────► │  State Store │
//	│  Consumers │                        │  (in-memory) │
//	└────────────┘ ◄───────────────────── └──────┬───────┘
//	                      Subscribe              │ notify
//	                                       ┌─────▼──────┐
//	                                       │   Writers  │
//	                                       └────────────┘
//
// The store is the only resource shared between driver instances and the
// consumer chain. Drivers decide what a value should be; the consumer
// chain writes it; a read after a write observes that write before the
// next control tick.
package property
