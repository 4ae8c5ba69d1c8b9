package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ThermostatSample is one control tick's published state, recorded for
// trend analysis.
type ThermostatSample struct {
	ActualTemperature      *float64
	ActualFloorTemperature *float64
	TargetTemperature      *float64
	Heating                bool
	Cooling                bool
	HvacState              string
}

// WriteThermostatState writes one thermostat control sample.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Nil readings are omitted so gaps stay visible in the series.
//
// Example:
//
//	client.WriteThermostatState(connectorID, deviceID, influxdb.ThermostatSample{
//	    ActualTemperature: &actual,
//	    HvacState:         "heating",
//	})
func (c *Client) WriteThermostatState(connectorID, deviceID string, sample ThermostatSample) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"heating": sample.Heating,
		"cooling": sample.Cooling,
	}
	if sample.ActualTemperature != nil {
		fields["actual_temperature"] = *sample.ActualTemperature
	}
	if sample.ActualFloorTemperature != nil {
		fields["actual_floor_temperature"] = *sample.ActualFloorTemperature
	}
	if sample.TargetTemperature != nil {
		fields["target_temperature"] = *sample.TargetTemperature
	}
	if sample.HvacState != "" {
		fields["hvac_state"] = sample.HvacState
	}

	point := write.NewPoint(
		"thermostat_state",
		map[string]string{
			"connector_id": connectorID,
			"device_id":    deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionState records a device connection state transition.
//
// Parameters:
//   - connectorID: The owning connector
//   - deviceID: Device identifier
//   - state: The new connection state (connected, alert, ...)
func (c *Client) WriteConnectionState(connectorID, deviceID, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_state",
		map[string]string{
			"connector_id": connectorID,
			"device_id":    deviceID,
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "connector-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
