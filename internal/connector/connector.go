package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/drivers"
	"github.com/nerrad567/gray-logic-virtual/internal/drivers/thermostat"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
	"github.com/nerrad567/gray-logic-virtual/internal/writers"
)

// writer is the common lifecycle of the actuation writers.
type writer interface {
	Start() error
	Stop() error
}

// Options holds the collaborators the connector composes.
type Options struct {
	// Config is the connector section of the loaded configuration.
	Config config.ConnectorConfig

	// Registry is the device configuration cache.
	Registry *device.Registry

	// Tracker tracks device platform connection states.
	Tracker *device.Tracker

	// Store is the property state store.
	Store *property.Store

	// MQTTClient is required when Config.Writer is "exchange".
	MQTTClient writers.MQTTClient

	// Telemetry is an optional thermostat telemetry sink.
	Telemetry TelemetryWriter

	// Logger is an optional structured logger.
	Logger Logger
}

// Connector is the top-level lifecycle facade. It owns the message
// queue, the consumer chain, the driver registry, the actuation writer,
// and the device supervisor, and runs the queue drain loop.
type Connector struct {
	id     uuid.UUID
	cfg    config.ConnectorConfig
	logger Logger

	queue      *queue.Queue
	chain      *queue.Chain
	drivers    *drivers.Registry
	writer     writer
	exchange   *writers.Exchange // nil in event mode
	supervisor *Supervisor
	telemetry  *telemetryRecorder // nil when no sink configured
	registry   *device.Registry
	store      *property.Store

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a connector from its collaborators. Call Start to begin
// operation.
func New(opts Options) (*Connector, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if opts.Tracker == nil {
		return nil, fmt.Errorf("connection tracker is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("property state store is required")
	}

	connectorID, err := uuid.Parse(opts.Config.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing connector id %q: %w", opts.Config.ID, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Connector{
		id:       connectorID,
		cfg:      opts.Config,
		logger:   logger,
		queue:    queue.New(),
		registry: opts.Registry,
		store:    opts.Store,
		done:     make(chan struct{}),
	}

	// Driver registry with the thermostat factory. Drivers enqueue
	// their state updates straight onto the connector's queue.
	c.drivers = drivers.NewRegistry()
	c.drivers.SetLogger(logger)
	c.drivers.Register(device.TypeThermostat, func(d *device.Device) drivers.Driver {
		drv := thermostat.New(d, opts.Registry, opts.Store, c.queue)
		drv.SetLogger(logger)
		return drv
	})

	// Actuation writer. The exchange writer doubles as the action
	// publisher handed to the store consumer; in event mode the store
	// consumer writes expected values directly and the event writer
	// turns them into write messages.
	var publisher queue.ActionPublisher
	switch opts.Config.Writer {
	case config.WriterExchange:
		if opts.MQTTClient == nil {
			return nil, fmt.Errorf("exchange writer requires an MQTT client")
		}
		ex := writers.NewExchange(connectorID, opts.MQTTClient, c.queue)
		ex.SetLogger(logger)
		c.writer = ex
		c.exchange = ex
		publisher = ex
	case config.WriterEvent:
		ev := writers.NewEvent(connectorID, opts.Registry, opts.Store, c.queue)
		ev.SetLogger(logger)
		c.writer = ev
	default:
		return nil, fmt.Errorf("unknown writer mode %q", opts.Config.Writer)
	}

	c.chain = queue.NewChain(c.queue)
	c.chain.SetLogger(logger)

	connection := queue.NewConnectionStateConsumer(opts.Registry, opts.Tracker, opts.Store)
	connection.SetLogger(logger)
	c.chain.Register(connection)

	store := queue.NewStorePropertyConsumer(opts.Registry, opts.Store, publisher)
	store.SetLogger(logger)
	c.chain.Register(store)

	write := queue.NewWritePropertyConsumer(opts.Registry, opts.Store, driverProvider{c.drivers}, c.queue)
	write.SetLogger(logger)
	c.chain.Register(write)

	c.supervisor = NewSupervisor(SupervisorOptions{
		ConnectorID:          connectorID,
		Devices:              opts.Registry,
		Tracker:              opts.Tracker,
		Drivers:              c.drivers,
		Queue:                c.queue,
		StartupDelay:         opts.Config.StartupDelay,
		TickInterval:         opts.Config.TickInterval,
		ReconnectCoolDown:    opts.Config.ReconnectCoolDown,
		StateProcessingDelay: opts.Config.StateProcessingDelay,
	})
	c.supervisor.SetLogger(logger)

	if opts.Telemetry != nil {
		c.telemetry = newTelemetryRecorder(connectorID, opts.Registry, opts.Tracker, opts.Store, opts.Telemetry)
		c.telemetry.SetLogger(logger)
	}

	return c, nil
}

// ID returns the connector's identifier.
func (c *Connector) ID() uuid.UUID {
	return c.id
}

// Supervisor returns the device supervisor, primarily for status
// reporting.
func (c *Connector) Supervisor() *Supervisor {
	return c.supervisor
}

// Start brings the connector up: writer first (so no actuation or
// inbound state is lost), then the supervisor, then the queue drain
// loop.
func (c *Connector) Start(ctx context.Context) error {
	if err := c.registry.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading device configuration: %w", err)
	}

	if err := c.writer.Start(); err != nil {
		return fmt.Errorf("starting %s writer: %w", c.cfg.Writer, err)
	}

	if c.exchange != nil {
		c.startStateReporting()
	}
	if c.telemetry != nil {
		c.telemetry.Start()
	}

	if err := c.supervisor.Start(ctx); err != nil {
		return fmt.Errorf("starting supervisor: %w", err)
	}

	c.wg.Add(1)
	go c.drain(ctx)

	c.logger.Info("connector started",
		"connector_id", c.id,
		"writer", c.cfg.Writer,
		"drain_interval", c.cfg.QueueDrainInterval)

	return nil
}

// Stop tears the connector down in reverse start order.
func (c *Connector) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		c.supervisor.Stop()

		if c.telemetry != nil {
			c.telemetry.Stop()
		}
		if err := c.writer.Stop(); err != nil {
			c.logger.Warn("writer stop failed", "error", err)
		}

		c.logger.Info("connector stopped", "connector_id", c.id)
	})
}

// Discover is not supported by the virtual connector. Devices are
// created through configuration, never found on a bus.
func (c *Connector) Discover(context.Context) error {
	c.logger.Error("discovery is not supported", "connector_id", c.id)
	return nil
}

// drain hands at most one queued message to the consumer chain per
// timer firing, bounding the rate of state-store writes relative to
// control decisions.
func (c *Connector) drain(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.QueueDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.chain.Consume(ctx)
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// startStateReporting republishes dynamic channel property updates as
// retained state documents on the broker.
func (c *Connector) startStateReporting() {
	unsubscribe := c.store.Subscribe(func(propertyID uuid.UUID, st property.State) {
		if !st.Valid {
			return
		}

		deviceID, channelID, err := c.registry.FindOwner(propertyID)
		if err != nil || channelID == uuid.Nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		p, err := c.registry.GetProperty(ctx, propertyID)
		if err != nil || p.Kind != property.KindDynamic {
			return
		}

		if err := c.exchange.PublishStateReport(deviceID, channelID, propertyID, st.Actual); err != nil {
			c.logger.Warn("state report failed",
				"property_id", propertyID, "error", err)
		}
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.done
		unsubscribe()
	}()
}

// driverProvider adapts drivers.Registry to the queue package's
// narrower provider contract.
type driverProvider struct {
	registry *drivers.Registry
}

func (p driverProvider) GetDriver(ctx context.Context, d *device.Device) (queue.Driver, error) {
	drv, err := p.registry.GetDriver(ctx, d)
	if err != nil {
		return nil, err
	}
	return drv, nil
}
