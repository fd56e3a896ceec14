// Package influxdb records device presence history in InfluxDB.
//
// Each device status update becomes one point in the device_presence
// measurement, tagged by device ID and status name. Writes are batched and
// non-blocking; asynchronous write failures are reported through the
// SetOnError callback.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePresence("dev-123", "online", 1, time.Now())
//
// The history is optional: the core works unchanged when InfluxDB is
// disabled or unreachable.
package influxdb
