package api

import (
	"net/http"

	"github.com/nerrad567/iotconnect-core/internal/audit"
)

type initializeRequest struct {
	DeviceKey  string `json:"device_key"`
	DevicePass string `json:"device_pass"`
}

type connectRequest struct {
	ControllableName string `json:"controllable_name"`
	DeviceKey        string `json:"device_key"`
	DevicePass       string `json:"device_pass"`
}

// successfullyInitialized is the literal body devices expect from initialize.
const successfullyInitialized = "Successfully Initialized"

// handleInitialize brings a device online after checking its pass.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !decodeBody(w, r, schemaInitialize, &req) {
		return
	}

	d, err := s.devices.Initialize(r.Context(), req.DeviceKey, req.DevicePass)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.auditLog(audit.ActionInitialize, audit.EntityDevice, d.ID, d.OwnerEmail, nil)

	writeText(w, http.StatusOK, successfullyInitialized)
}

// handleConnectControllable authenticates the device from the body and
// returns "topic,broker_user,broker_pass" for the named controllable.
func (s *Server) handleConnectControllable(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeBody(w, r, schemaConnect, &req) {
		return
	}

	d, err := s.devices.Authenticate(r.Context(), req.DeviceKey, req.DevicePass)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	creds, err := s.controllables.Connect(r.Context(), d, req.ControllableName)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeText(w, http.StatusOK, creds.String())
}
