// Package api provides the HTTP interface of IoT Connect Core.
//
// Routes are grouped by caller:
//
//	/api/app/*     mobile/web app, gated by the service key and (except
//	               login/verify) a user session
//	/api/device/*  devices, gated by the service key; connect_controllable
//	               also requires the device key and pass in the body
//	/api/mqtt/*    broker hooks reporting device presence
//	/api/health    liveness, no authentication
//
// Provisioning actions are written to the audit trail asynchronously; a
// user reads their own trail from /api/app/get_activity.
//
// All routes accept POST with a JSON body validated against a JSON Schema.
// Failures use a single envelope:
//
//	{"message": "...", "success": false, "error_code": "003"}
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
