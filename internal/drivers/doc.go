// Package drivers defines the device driver contract and the registry
// that creates and memoizes one driver instance per device.
//
// A driver owns one device's operational state machine:
//
//	disconnected --Connect()--> connected --Process() loop
//	      ^                         |
//	      +------Disconnect()-------+
//
// Drivers are created lazily by the registry the first time a device is
// processed, matched by the device's type tag against the registered
// factories. The supervisor drives the lifecycle; the queue's write
// consumer calls back into WriteState and NotifyState to apply commands.
//
// Usage:
//
//	registry := drivers.NewRegistry()
//	registry.Register(device.TypeThermostat, func(d *device.Device) drivers.Driver {
//	    return thermostat.New(d, deps...)
//	})
//
//	driver, err := registry.GetDriver(ctx, dev)
//	if err != nil {
//	    // device type has no driver, alert it
//	}
//
// Thread Safety:
//   - Registry is safe for concurrent use.
//   - Driver implementations must be safe for concurrent use; the
//     supervisor's process goroutine and the queue's write consumer may
//     call into the same driver at the same time.
package drivers
