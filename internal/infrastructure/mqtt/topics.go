package mqtt

import "fmt"

// Topic prefixes for the virtual connector's exchange traffic.
//
// All connector topics use the flat scheme:
// graylogic/virtual/{connector}/{category}/{device}/{channel}/{property}
const (
	// TopicPrefixVirtual is the base for all virtual connector topics.
	TopicPrefixVirtual = "graylogic/virtual"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for the connector's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmd := topics.PropertyCommand("conn-1", "dev-1", "chan-1", "prop-1")
//	// Returns: "graylogic/virtual/conn-1/command/dev-1/chan-1/prop-1"
type Topics struct{}

// PropertyCommand returns the topic for outbound actuation requests on
// a mapped property.
//
// Example: graylogic/virtual/conn-1/command/dev-1/chan-1/prop-1
func (Topics) PropertyCommand(connectorID, deviceID, channelID, propertyID string) string {
	return fmt.Sprintf("%s/%s/command/%s/%s/%s",
		TopicPrefixVirtual, connectorID, deviceID, channelID, propertyID)
}

// PropertyState returns the topic for inbound observed property values.
//
// Example: graylogic/virtual/conn-1/state/dev-1/chan-1/prop-1
func (Topics) PropertyState(connectorID, deviceID, channelID, propertyID string) string {
	return fmt.Sprintf("%s/%s/state/%s/%s/%s",
		TopicPrefixVirtual, connectorID, deviceID, channelID, propertyID)
}

// ConnectionState returns the topic for device connection state
// announcements.
//
// Example: graylogic/virtual/conn-1/connection/dev-1
func (Topics) ConnectionState(connectorID, deviceID string) string {
	return fmt.Sprintf("%s/%s/connection/%s", TopicPrefixVirtual, connectorID, deviceID)
}

// SystemStatus returns the system status topic, used for the online
// announcement and the last-will message.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllPropertyStates returns a pattern matching observed property values
// for every connector.
//
// Pattern: graylogic/virtual/+/state/#
func (Topics) AllPropertyStates() string {
	return fmt.Sprintf("%s/+/state/#", TopicPrefixVirtual)
}

// AllPropertyCommands returns a pattern matching actuation requests for
// every connector.
//
// Pattern: graylogic/virtual/+/command/#
func (Topics) AllPropertyCommands() string {
	return fmt.Sprintf("%s/+/command/#", TopicPrefixVirtual)
}

// AllTopics returns a pattern matching all Gray Logic topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: graylogic/#
func (Topics) AllTopics() string {
	return "graylogic/#"
}
