// Package connector implements the virtual connector runtime.
//
// It composes the device supervisor, the message queue with its
// consumer chain, and one actuation writer into a single lifecycle:
//
//	Connector.Start(ctx)
//	  ├── writer.Start()            exchange (MQTT) or event (in-process)
//	  ├── Supervisor.Start(ctx)     per-device connect/tick scheduling
//	  └── drain loop                one queue message per firing
//
//	supervisor tick ──► driver.Process() ──► queue.Append(...)
//	                                              │
//	drain tick ──► chain.Consume() ◄──────────────┘
//	                    │
//	                    ├── store property state / connection state
//	                    └── write consumer ──► driver.WriteState()
//
// The supervisor round-robins through the connector's enabled devices
// on a fixed tick, processing at most one device per sweep step.
// Driver connect and process calls run on worker goroutines; their
// completions only update supervisor bookkeeping under a mutex and
// enqueue messages, so a slow or failing device never blocks the loop.
//
// Thread Safety: Connector and Supervisor methods are safe for
// concurrent use.
package connector
