// Package device models the configured virtual devices a connector
// supervises and their persistence.
//
// Architecture:
//
//	┌──────────────┐   cached reads    ┌────────────┐   SQL   ┌────────┐
//	│  Supervisor, │ ────────────────► │  Registry  │ ──────► │ SQLite │
//	│  Consumers   │                   │ (RWMutex)  │         └────────┘
//	└──────────────┘                   └────────────┘
//
// A Device owns Channels, a Channel owns Properties (see the property
// package). The runtime treats this configuration as a read-only
// snapshot; the installer that creates and edits devices lives outside
// this process and writes to the same SQLite database.
//
// The Tracker holds each device's platform connection state
// (connected, disconnected, stopped, alert, unknown) in memory and
// persists the latest value so an alert survives a restart.
package device
