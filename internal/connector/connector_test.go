package connector

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
)

// fakeRepo is an empty in-memory device.Repository.
type fakeRepo struct{}

func (fakeRepo) GetByConnector(context.Context, uuid.UUID) ([]device.Device, error) {
	return nil, nil
}

func (fakeRepo) GetByID(context.Context, uuid.UUID) (*device.Device, error) {
	return nil, device.ErrNotFound
}

func (fakeRepo) GetProperty(context.Context, uuid.UUID) (*property.Property, error) {
	return nil, property.ErrNotFound
}

func (fakeRepo) UpdatePropertyValue(context.Context, uuid.UUID, any) error { return nil }

func (fakeRepo) GetConnectionState(context.Context, uuid.UUID) (device.ConnectionState, error) {
	return device.Unknown, nil
}

func (fakeRepo) SetConnectionState(context.Context, uuid.UUID, device.ConnectionState) error {
	return nil
}

func testConnectorConfig(writer string) config.ConnectorConfig {
	return config.ConnectorConfig{
		ID:                   uuid.NewString(),
		Writer:               writer,
		StartupDelay:         time.Millisecond,
		TickInterval:         time.Millisecond,
		QueueDrainInterval:   time.Millisecond,
		ReconnectCoolDown:    time.Second,
		StateProcessingDelay: time.Second,
	}
}

func testOptions(writer string) Options {
	connectorID := uuid.New()
	cfg := testConnectorConfig(writer)
	cfg.ID = connectorID.String()

	return Options{
		Config:   cfg,
		Registry: device.NewRegistry(fakeRepo{}, connectorID),
		Tracker:  device.NewTracker(fakeRepo{}),
		Store:    property.NewStore(),
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{
			name:   "missing registry",
			mutate: func(o *Options) { o.Registry = nil },
		},
		{
			name:   "missing tracker",
			mutate: func(o *Options) { o.Tracker = nil },
		},
		{
			name:   "missing store",
			mutate: func(o *Options) { o.Store = nil },
		},
		{
			name:   "malformed connector id",
			mutate: func(o *Options) { o.Config.ID = "not-a-uuid" },
		},
		{
			name:   "exchange writer without mqtt client",
			mutate: func(o *Options) { o.Config.Writer = config.WriterExchange },
		},
		{
			name:   "unknown writer mode",
			mutate: func(o *Options) { o.Config.Writer = "carrier-pigeon" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(config.WriterEvent)
			tt.mutate(&opts)

			if _, err := New(opts); err == nil {
				t.Fatal("New() error = nil, want error")
			}
		})
	}
}

func TestConnector_StartStop(t *testing.T) {
	c, err := New(testOptions(config.WriterEvent))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The drain loop must empty the queue even when the message's
	// device is unknown (consumers claim and drop it).
	c.queue.Append(queue.StoreDeviceConnectionState{
		ConnectorID: c.ID(),
		DeviceID:    uuid.New(),
		State:       device.Connected,
		Source:      queue.SourceSupervisor,
	})

	deadline := time.Now().Add(2 * time.Second)
	for !c.queue.IsEmpty() {
		if time.Now().After(deadline) {
			t.Fatal("queue was not drained")
		}
		time.Sleep(time.Millisecond)
	}

	c.Stop()
	c.Stop() // idempotent
}

func TestConnector_DiscoverIsUnsupported(t *testing.T) {
	c, err := New(testOptions(config.WriterEvent))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Discover(context.Background()); err != nil {
		t.Errorf("Discover() error = %v, want nil", err)
	}
}
