// Package writers closes the actuation loop for mapped properties.
//
// A connector runs exactly one writer, selected by configuration:
//
//	exchange  commands leave the process over MQTT and observed values
//	          come back on the broker's state topics
//
//	    store consumer --> Exchange.PublishSetAction --> broker
//	    broker --> state topic --> queue (StoreChannelPropertyState)
//
//	event     commands stay in-process: the writer watches the state
//	          store and turns fresh expected values into write messages
//	          for the queue's write consumer
//
//	    store consumer --> state store (expected set, pending clear)
//	    state store --> Event.handle --> queue (Write*PropertyState)
//
// Either way the driver is only ever invoked by the write consumer,
// and observed values only ever land through store messages. The
// writers never wait for a reply.
package writers
