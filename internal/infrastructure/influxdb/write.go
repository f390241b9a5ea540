package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading writes one sensor_reading point: tag device_id,
// field value, at the given timestamp. It never blocks — the write API
// batches and flushes asynchronously — so a disconnected or unreachable
// InfluxDB server never delays the caller. A disconnected client silently
// drops the point; failures surface only through the error callback set
// via SetOnError.
func (c *Client) WriteSensorReading(deviceID string, value float64, atUnixMs int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_reading",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"value": value},
		time.UnixMilli(atUnixMs),
	)

	c.writeAPI.WritePoint(point)
}
