// Package mqtt provides MQTT client connectivity for SmartHive Core.
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
// SmartHive uses MQTT as the transport between device controllers and the
// Core. Controllers publish sensor readings and warning events under a
// shared topic prefix; the Core subscribes with wildcards.
//
//	Device Controllers → MQTT Broker → SmartHive Core
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
//	topics := mqtt.NewTopics(cfg.Alerting.TopicPrefix)
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to warning events from every device
//	err = client.Subscribe(topics.AllDeviceWarnings(), 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
