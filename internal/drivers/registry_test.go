package drivers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
)

type stubDriver struct {
	connected    bool
	disconnected int
}

func (s *stubDriver) Connect(context.Context) error { s.connected = true; return nil }
func (s *stubDriver) Disconnect(context.Context) error {
	s.connected = false
	s.disconnected++
	return nil
}
func (s *stubDriver) IsConnected() bool                                 { return s.connected }
func (s *stubDriver) Process(context.Context) error                     { return nil }
func (s *stubDriver) WriteState(context.Context, uuid.UUID, any) error  { return nil }
func (s *stubDriver) NotifyState(context.Context, uuid.UUID, any) error { return nil }

type failingDriver struct{ stubDriver }

func (f *failingDriver) Disconnect(context.Context) error {
	f.disconnected++
	return errors.New("stuck")
}

func TestRegistry_GetDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("memoizes per device", func(t *testing.T) {
		registry := NewRegistry()
		built := 0
		registry.Register(device.TypeThermostat, func(*device.Device) Driver {
			built++
			return &stubDriver{}
		})

		d := &device.Device{ID: uuid.New(), Type: device.TypeThermostat}
		first, err := registry.GetDriver(ctx, d)
		if err != nil {
			t.Fatalf("GetDriver() error = %v", err)
		}
		second, err := registry.GetDriver(ctx, d)
		if err != nil {
			t.Fatalf("GetDriver() error = %v", err)
		}

		if first != second {
			t.Error("GetDriver() returned different instances for one device")
		}
		if built != 1 {
			t.Errorf("factory ran %d times, want 1", built)
		}
	})

	t.Run("distinct devices get distinct drivers", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(device.TypeThermostat, func(*device.Device) Driver {
			return &stubDriver{}
		})

		a, _ := registry.GetDriver(ctx, &device.Device{ID: uuid.New(), Type: device.TypeThermostat})
		b, _ := registry.GetDriver(ctx, &device.Device{ID: uuid.New(), Type: device.TypeThermostat})
		if a == b {
			t.Error("GetDriver() shared one instance across devices")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.GetDriver(ctx, &device.Device{ID: uuid.New(), Type: "toaster"})
		if !errors.Is(err, ErrNoDriver) {
			t.Errorf("GetDriver() error = %v, want ErrNoDriver", err)
		}
	})
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	healthy := &stubDriver{}
	stuck := &failingDriver{}
	registry.Register(device.TypeThermostat, func(*device.Device) Driver { return healthy })
	registry.Register("broken", func(*device.Device) Driver { return stuck })

	if _, err := registry.GetDriver(ctx, &device.Device{ID: uuid.New(), Type: device.TypeThermostat}); err != nil {
		t.Fatalf("GetDriver() error = %v", err)
	}
	if _, err := registry.GetDriver(ctx, &device.Device{ID: uuid.New(), Type: "broken"}); err != nil {
		t.Fatalf("GetDriver() error = %v", err)
	}

	registry.Close(ctx)

	if healthy.disconnected != 1 {
		t.Errorf("healthy driver disconnected %d times, want 1", healthy.disconnected)
	}
	if stuck.disconnected != 1 {
		t.Errorf("failing driver disconnected %d times, want 1", stuck.disconnected)
	}

	// A fresh GetDriver after Close builds a new instance.
	d := &device.Device{ID: uuid.New(), Type: device.TypeThermostat}
	driver, err := registry.GetDriver(ctx, d)
	if err != nil {
		t.Fatalf("GetDriver() after Close error = %v", err)
	}
	if driver == nil {
		t.Fatal("GetDriver() after Close = nil")
	}
}
