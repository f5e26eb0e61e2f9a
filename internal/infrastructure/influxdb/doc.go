// Package influxdb provides time-series storage for device telemetry.
//
// This package wraps the official InfluxDB v2 client with:
//   - Connection management and health checks
//   - Non-blocking batched writes (async error callback)
//   - A telemetry helper for the standard sensor reading shape
//
// InfluxDB is optional: when disabled in config, telemetry recording is
// skipped entirely and the alert pipeline is unaffected.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) {
//	    log.Error("influxdb write error", "error", err)
//	})
//
//	client.WriteTelemetry("controller-01", 24.5, 61.0, 118, time.Now())
package influxdb
