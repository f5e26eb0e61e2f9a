// Package telemetry records periodic sensor readings from device
// controllers into InfluxDB. It shares the MQTT connection with the
// alert pipeline but is otherwise independent of it.
package telemetry
