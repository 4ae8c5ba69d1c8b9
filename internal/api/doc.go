// Package api provides the read-only HTTP status API for Gray Logic
// Virtual.
//
// It exposes the connector's device inventory and live property state
// for monitoring and debugging. The API never mutates anything; all
// control flows through the message queue.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Endpoints:
//
//	GET /health                    liveness and device counts
//	GET /api/v1/devices            device inventory with connection states
//	GET /api/v1/devices/{id}/state per-property runtime state
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
