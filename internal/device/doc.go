// Package device provides the Device Registry for IoT Connect Core.
//
// A device is created for a verified user by IssueDevice, which returns a
// grouped device key and a one-time device pass. The key is stored in clear
// under a unique index; the pass is stored only as an Argon2id hash. The
// device later proves possession of both to Initialize itself and to
// obtain broker credentials for its controllables.
//
// # Status lifecycle
//
//	Unregistered (-1) --Initialize--> Online (1) <--SetOnline/SetOffline--> Offline (0)
//
// SetOnline and SetOffline are idempotent and driven either by the broker's
// HTTP hooks or by the MQTT presence listener. Every successful status
// update is handed to an optional PresenceRecorder.
//
// # Thread Safety
//
// The Registry holds no mutable state of its own. Concurrent callers are
// serialised by the database, and uniqueness is enforced by SQLite indexes.
package device
