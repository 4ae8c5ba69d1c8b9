package writers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
)

// MQTTClient is the broker access the exchange writer needs. Satisfied
// by mqtt.Client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
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

// setAction is the wire form of an outbound actuation request.
type setAction struct {
	Action        string `json:"action"`
	Device        string `json:"device"`
	Channel       string `json:"channel"`
	Property      string `json:"property"`
	ExpectedValue any    `json:"expected_value"`
}

// stateReport is the wire form of an inbound observed value.
type stateReport struct {
	Value any `json:"value"`
}

// Exchange publishes actuation requests for mapped properties to the
// broker and feeds observed values back into the queue. Implements
// queue.ActionPublisher.
type Exchange struct {
	connectorID uuid.UUID
	client      MQTTClient
	queue       *queue.Queue
	logger      Logger

	// lastReported dedupes outbound state reports. Inbound state topics
	// feed the queue, so reporting an unchanged value back would bounce
	// between broker and store forever.
	mu           sync.Mutex
	lastReported map[uuid.UUID]any
}

// NewExchange creates the exchange writer.
func NewExchange(connectorID uuid.UUID, client MQTTClient, q *queue.Queue) *Exchange {
	return &Exchange{
		connectorID:  connectorID,
		client:       client,
		queue:        q,
		logger:       noopLogger{},
		lastReported: make(map[uuid.UUID]any),
	}
}

// SetLogger sets the logger for the writer.
func (e *Exchange) SetLogger(logger Logger) {
	e.logger = logger
}

// Start subscribes to the broker's state topics.
func (e *Exchange) Start() error {
	if err := e.client.Subscribe(mqtt.Topics{}.AllPropertyStates(), 1, e.handleState); err != nil {
		return fmt.Errorf("subscribing to state topics: %w", err)
	}
	return nil
}

// Stop drops the state topic subscription.
func (e *Exchange) Stop() error {
	return e.client.Unsubscribe(mqtt.Topics{}.AllPropertyStates())
}

// PublishSetAction publishes an actuation request for a mapped channel
// property. It does not wait for a reply; the new value arrives later
// on the state topic.
func (e *Exchange) PublishSetAction(_ context.Context, deviceID, channelID, propertyID uuid.UUID, expected any) error {
	payload, err := json.Marshal(setAction{
		Action:        "set",
		Device:        deviceID.String(),
		Channel:       channelID.String(),
		Property:      propertyID.String(),
		ExpectedValue: expected,
	})
	if err != nil {
		return fmt.Errorf("encoding set action: %w", err)
	}

	topic := mqtt.Topics{}.PropertyCommand(
		e.connectorID.String(), deviceID.String(), channelID.String(), propertyID.String())
	if err := e.client.Publish(topic, payload, 1, false); err != nil {
		return fmt.Errorf("publishing set action: %w", err)
	}

	e.logger.Debug("set action published",
		"device_id", deviceID, "property_id", propertyID, "expected", expected)
	return nil
}

// PublishStateReport publishes a retained state document for a dynamic
// channel property. Unchanged values are skipped.
func (e *Exchange) PublishStateReport(deviceID, channelID, propertyID uuid.UUID, value any) error {
	e.mu.Lock()
	last, seen := e.lastReported[propertyID]
	if seen && last == value {
		e.mu.Unlock()
		return nil
	}
	e.lastReported[propertyID] = value
	e.mu.Unlock()

	payload, err := json.Marshal(stateReport{Value: value})
	if err != nil {
		return fmt.Errorf("encoding state report: %w", err)
	}

	topic := mqtt.Topics{}.PropertyState(
		e.connectorID.String(), deviceID.String(), channelID.String(), propertyID.String())
	if err := e.client.Publish(topic, payload, 1, true); err != nil {
		return fmt.Errorf("publishing state report: %w", err)
	}
	return nil
}

// handleState turns one observed value from the broker into a store
// message. Traffic for other connectors is ignored.
//
// Topic shape: graylogic/virtual/{connector}/state/{device}/{channel}/{property}
func (e *Exchange) handleState(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != 7 || parts[3] != "state" {
		return fmt.Errorf("unexpected state topic %q", topic)
	}

	connectorID, err := uuid.Parse(parts[2])
	if err != nil {
		return fmt.Errorf("parsing connector id from %q: %w", topic, err)
	}
	if connectorID != e.connectorID {
		return nil
	}

	deviceID, err := uuid.Parse(parts[4])
	if err != nil {
		return fmt.Errorf("parsing device id from %q: %w", topic, err)
	}
	channelID, err := uuid.Parse(parts[5])
	if err != nil {
		return fmt.Errorf("parsing channel id from %q: %w", topic, err)
	}
	propertyID, err := uuid.Parse(parts[6])
	if err != nil {
		return fmt.Errorf("parsing property id from %q: %w", topic, err)
	}

	var report stateReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("decoding state report on %q: %w", topic, err)
	}

	e.queue.Append(queue.StoreChannelPropertyState{
		ConnectorID: connectorID,
		DeviceID:    deviceID,
		ChannelID:   channelID,
		PropertyID:  propertyID,
		Value:       report.Value,
		Source:      queue.SourceExchange,
	})
	return nil
}
