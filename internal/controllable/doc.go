// Package controllable maps a device's named capabilities to broker topics.
//
// A controllable is identified by (device_id, name) and carries a
// generated 50-character topic name that the broker uses as its channel.
// Owners create and look up controllables through their session; devices
// resolve them with Connect, which also returns the owner's broker
// credentials.
package controllable
