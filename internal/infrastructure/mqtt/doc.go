// Package mqtt provides MQTT client connectivity for the virtual
// connector's exchange transport.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// In exchange writer mode the connector publishes actuation requests
// for mapped properties onto the broker and receives observed values
// back on the state topics. The broker decouples the connector from
// the platform that owns the parent devices.
//
//	Virtual Connector ↔ MQTT Broker ↔ Device Platform
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all observed property values
//	err = client.Subscribe(mqtt.Topics{}.AllPropertyStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish an actuation request
//	topic := mqtt.Topics{}.PropertyCommand(connectorID, deviceID, channelID, propertyID)
//	client.Publish(topic, []byte(`{"action":"set","expected_value":true}`), 1, false)
package mqtt
