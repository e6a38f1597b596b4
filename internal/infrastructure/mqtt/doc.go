// Package mqtt provides MQTT client connectivity for the state mirror.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The mirror publishes each resource's current state as a retained
// message so home-automation dashboards and rule engines can observe
// the same picture the gateway protocol reports, without speaking the
// protocol themselves. Inbound command topics are translated to the
// same backend calls the protocol server makes.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	client.Publish(topics.ResourceState("Kitchen", "DIMMER", "Ceiling"),
//	    []byte("LEVEL=50"), 1, true)
package mqtt
