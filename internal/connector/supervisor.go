package connector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/drivers"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
)

// DeviceSource lists the connector's configured devices. Satisfied by
// device.Registry.
type DeviceSource interface {
	ListDevices() []device.Device
}

// ConnectionTracker reads device platform connection states. Satisfied
// by device.Tracker.
type ConnectionTracker interface {
	GetState(ctx context.Context, deviceID uuid.UUID) device.ConnectionState
}

// DriverRegistry resolves and tears down device drivers. Satisfied by
// drivers.Registry.
type DriverRegistry interface {
	GetDriver(ctx context.Context, d *device.Device) (drivers.Driver, error)
	Forget(deviceID uuid.UUID)
	Close(ctx context.Context)
}

// MessageSink accepts queue messages. Satisfied by queue.Queue.
type MessageSink interface {
	Append(msg queue.Message)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SupervisorOptions configures a supervisor.
type SupervisorOptions struct {
	ConnectorID uuid.UUID
	Devices     DeviceSource
	Tracker     ConnectionTracker
	Drivers     DriverRegistry
	Queue       MessageSink

	// StartupDelay is the pause before the first tick.
	StartupDelay time.Duration

	// TickInterval is the sweep cadence.
	TickInterval time.Duration

	// ReconnectCoolDown is the minimum time between connect attempts
	// for a device whose driver failed to connect.
	ReconnectCoolDown time.Duration

	// StateProcessingDelay is the default minimum time between control
	// ticks for one device.
	StateProcessingDelay time.Duration
}

// deviceSlot is the supervisor's per-device bookkeeping.
type deviceSlot struct {
	device *device.Device

	// visited marks the device as handled in the current sweep.
	visited bool

	// connecting is true while an async Connect is in flight.
	connecting bool

	// lastConnectAttempt is zero until the first connect attempt.
	lastConnectAttempt time.Time

	// lastProcessAttempt gates the per-device inter-tick delay. Reset
	// to zero after a failed Process so the next tick retries.
	lastProcessAttempt time.Time
}

// Supervisor keeps every configured device's driver connected and
// ticking without blocking on any single device.
//
// One tick visits the first device not yet handled in the current
// sweep. A tick that performed a process attempt ends the sweep step
// early; when every device has been visited the sweep resets. Connect
// and process run asynchronously; completions update the slot under
// the supervisor mutex and enqueue connection-state messages.
type Supervisor struct {
	opts   SupervisorOptions
	logger Logger

	mu    sync.Mutex
	order []uuid.UUID
	slots map[uuid.UUID]*deviceSlot

	done      chan struct{}
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	// loop covers the tick goroutine; tasks covers in-flight async
	// connect/process completions.
	loop  sync.WaitGroup
	tasks sync.WaitGroup
}

// NewSupervisor creates a supervisor. Call Start to begin ticking.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		opts:      opts,
		logger:    noopLogger{},
		slots:     make(map[uuid.UUID]*deviceSlot),
		done:      make(chan struct{}),
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// Start loads the connector's enabled devices and begins the tick loop
// after the configured startup delay.
func (s *Supervisor) Start(ctx context.Context) error {
	devices := s.opts.Devices.ListDevices()

	s.mu.Lock()
	for i := range devices {
		d := devices[i]
		if !d.Enabled {
			continue
		}
		s.order = append(s.order, d.ID)
		s.slots[d.ID] = &deviceSlot{device: &d}
	}
	count := len(s.slots)
	s.mu.Unlock()

	s.logger.Info("supervisor starting",
		"connector_id", s.opts.ConnectorID,
		"devices", count,
		"startup_delay", s.opts.StartupDelay)

	s.loop.Add(1)
	go s.run(ctx)

	return nil
}

// Stop cancels the tick loop, waits for in-flight work to settle, and
// disconnects every driver the registry created.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.ctxCancel()
		s.loop.Wait()
		s.tasks.Wait()

		// Best-effort disconnect with a bounded deadline; Stop must
		// not hang on an unresponsive driver.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.opts.Drivers.Close(ctx)

		s.logger.Info("supervisor stopped", "connector_id", s.opts.ConnectorID)
	})
}

// ActiveDevices returns the IDs of devices still in the polling set.
func (s *Supervisor) ActiveDevices() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(s.slots))
	for _, id := range s.order {
		if _, ok := s.slots[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// run is the tick loop goroutine.
func (s *Supervisor) run(ctx context.Context) {
	defer s.loop.Done()

	select {
	case <-time.After(s.opts.StartupDelay):
	case <-s.done:
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.handleDevices()
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleDevices visits the first device not yet handled in the current
// sweep. A process attempt ends the step early so load spreads across
// ticks instead of serializing every device into one.
func (s *Supervisor) handleDevices() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		slot, ok := s.slots[id]
		if !ok || slot.visited {
			continue
		}

		slot.visited = true
		if s.processDevice(slot) {
			return
		}
	}

	// Sweep complete, start over on the next tick.
	for _, slot := range s.slots {
		slot.visited = false
	}
}

// processDevice advances one device's connect/process state machine.
// Returns true when a process attempt occurred. Caller holds s.mu.
func (s *Supervisor) processDevice(slot *deviceSlot) bool {
	d := slot.device

	driver, err := s.opts.Drivers.GetDriver(s.ctx, d)
	if err != nil {
		s.logger.Error("device is unprocessable",
			"device_id", d.ID, "device_type", d.Type, "error", err)
		s.dropDevice(d.ID)
		s.opts.Queue.Append(queue.StoreDeviceConnectionState{
			ConnectorID: s.opts.ConnectorID,
			DeviceID:    d.ID,
			State:       device.Alert,
			Source:      queue.SourceSupervisor,
		})
		return false
	}

	if !driver.IsConnected() {
		s.handleDisconnected(slot, driver)
		return false
	}

	return s.handleConnected(slot, driver)
}

// handleDisconnected drives reconnect scheduling. Caller holds s.mu.
func (s *Supervisor) handleDisconnected(slot *deviceSlot, driver drivers.Driver) {
	d := slot.device

	state := s.opts.Tracker.GetState(s.ctx, d.ID)
	if state == device.Alert || state == device.Stopped {
		s.logger.Warn("dropping device from polling set",
			"device_id", d.ID, "connection_state", state)
		s.dropDevice(d.ID)
		return
	}

	if slot.connecting {
		return
	}

	if !slot.lastConnectAttempt.IsZero() &&
		time.Since(slot.lastConnectAttempt) < s.opts.ReconnectCoolDown {
		s.opts.Queue.Append(queue.StoreDeviceConnectionState{
			ConnectorID: s.opts.ConnectorID,
			DeviceID:    d.ID,
			State:       device.Disconnected,
			Source:      queue.SourceSupervisor,
		})
		return
	}

	slot.connecting = true
	slot.lastConnectAttempt = time.Now()

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		err := driver.Connect(s.ctx)

		s.mu.Lock()
		slot.connecting = false
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("driver connect failed",
				"device_id", d.ID, "error", err)
			s.opts.Queue.Append(queue.StoreDeviceConnectionState{
				ConnectorID: s.opts.ConnectorID,
				DeviceID:    d.ID,
				State:       device.Alert,
				Source:      queue.SourceSupervisor,
			})
			return
		}

		s.logger.Info("driver connected", "device_id", d.ID)
		s.opts.Queue.Append(queue.StoreDeviceConnectionState{
			ConnectorID: s.opts.ConnectorID,
			DeviceID:    d.ID,
			State:       device.Connected,
			Source:      queue.SourceSupervisor,
		})
	}()
}

// handleConnected runs one throttled process attempt. Returns true when
// an attempt occurred. Caller holds s.mu.
func (s *Supervisor) handleConnected(slot *deviceSlot, driver drivers.Driver) bool {
	d := slot.device

	delay := s.processingDelay(d)
	if !slot.lastProcessAttempt.IsZero() &&
		time.Since(slot.lastProcessAttempt) < delay {
		return false
	}
	slot.lastProcessAttempt = time.Now()

	state := s.opts.Tracker.GetState(s.ctx, d.ID)
	if state == device.Alert {
		s.logger.Warn("dropping device from polling set",
			"device_id", d.ID, "connection_state", state)
		s.dropDevice(d.ID)
		return false
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		err := driver.Process(s.ctx)

		if err != nil {
			s.mu.Lock()
			slot.lastProcessAttempt = time.Time{}
			s.mu.Unlock()
		}

		if err == nil {
			return
		}

		s.logger.Error("driver process failed",
			"device_id", d.ID, "error", err)
		s.opts.Queue.Append(queue.StoreDeviceConnectionState{
			ConnectorID: s.opts.ConnectorID,
			DeviceID:    d.ID,
			State:       device.Alert,
			Source:      queue.SourceSupervisor,
		})
		if derr := driver.Disconnect(s.ctx); derr != nil {
			s.logger.Warn("driver disconnect failed after process error",
				"device_id", d.ID, "error", derr)
		}
	}()

	return true
}

// processingDelay returns the minimum time between control ticks for a
// device: the device's configured override, else the connector default.
func (s *Supervisor) processingDelay(d *device.Device) time.Duration {
	if d.StateProcessingDelay > 0 {
		return d.StateProcessingDelay
	}

	if p := d.Property(device.PropStateProcessingDelay); p != nil && p.Value != nil {
		if seconds, err := property.ToFloat(p.Value); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	return s.opts.StateProcessingDelay
}

// dropDevice removes a device from the polling set. Caller holds s.mu.
func (s *Supervisor) dropDevice(id uuid.UUID) {
	delete(s.slots, id)
	s.opts.Drivers.Forget(id)
}
