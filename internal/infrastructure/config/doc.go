// Package config loads and validates SmartHive Core configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// SMARTHIVE_* environment variable overrides. Secrets (MQTT password,
// InfluxDB token, Firebase credentials path) should come from the
// environment rather than the file.
//
// Example config.yaml:
//
//	database:
//	  path: "./data/smarthive.db"
//	mqtt:
//	  broker:
//	    host: "localhost"
//	    port: 1883
//	alerting:
//	  topic_prefix: "smart_home"
//	  cooldown_seconds: 60
//	  sweep_interval_seconds: 300
//	logging:
//	  level: "info"
//	  format: "json"
package config
