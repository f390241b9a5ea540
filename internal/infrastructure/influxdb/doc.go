// Package influxdb is the gateway's telemetry sink (C8): a thin,
// best-effort wrapper around the official influxdb-client-go v2 library's
// non-blocking write API.
//
// # Usage
//
//	cfg := influxdb.Config{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "iotgw",
//	    Bucket:  "telemetry",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSensorReading("temp01", 21.5, nowMs)
//
// # Thread Safety
//
// All methods are safe for concurrent use. The underlying write API uses
// non-blocking batched writes, so WriteSensorReading never blocks on
// network I/O — a disconnected or unreachable server only ever surfaces
// through the optional error callback (SetOnError), never a delay.
package influxdb
