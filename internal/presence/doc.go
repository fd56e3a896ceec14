// Package presence keeps device status in step with the MQTT broker.
//
// The Listener subscribes to <prefix>/presence/+ and turns "online" and
// "offline" payloads into device.Registry status updates, keyed by the
// device key in the last topic segment. JSON payloads of the form
// {"status":"online"} are accepted as well. Unknown devices and unknown
// payloads are logged and dropped.
//
// The Recorder adapts the InfluxDB client to device.PresenceRecorder so
// every status update is kept as history.
package presence
