// Package queue decouples what changed from who acts on it.
//
// Drivers and the supervisor append typed messages to a strict FIFO
// queue. A single timer drains at most one message per firing and offers
// it to an ordered chain of consumers; the first consumer that claims a
// message handles it and the rest never see it.
//
// Architecture:
//
//	Drivers ──┐                        ┌─► ConnectionStateConsumer
//	          ├─► Queue ──► Chain ─────┼─► StorePropertyConsumer
//	Supervisor┘   (FIFO)  (first match)└─► WritePropertyConsumer
//
// Message routing failures (a referenced device, channel or property no
// longer exists) are logged and the message is dropped, never retried.
// The next control tick recomputes correct state, so a stale message is
// harmless.
package queue
