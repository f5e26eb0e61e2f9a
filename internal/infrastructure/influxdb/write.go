package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry writes one device telemetry reading to InfluxDB.
//
// This is the primary method for recording periodic sensor data published
// by device controllers. The write is non-blocking; points are batched and
// sent asynchronously.
//
// Parameters:
//   - deviceID: The controller key the reading came from (e.g., "controller-01")
//   - temperature: Ambient temperature in degrees Celsius
//   - humidity: Relative humidity in percent
//   - gas: Gas sensor reading in ppm
//   - ts: The reading's own timestamp (device clock)
func (c *Client) WriteTelemetry(deviceID string, temperature, humidity float64, gas int, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"temperature": temperature,
			"humidity":    humidity,
			"gas":         gas,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the telemetry helper.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
