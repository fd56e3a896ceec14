// Package audit records provisioning activity: verified logins, issued
// device credentials, created controllables and device initialisation.
//
// Entries are written best-effort by the API layer and read back per
// actor, so an account holder can see what was done with their account.
package audit
