package api

import (
	"context"
	"net/http"
)

type deviceKeyRequest struct {
	DeviceKey string `json:"device_key"`
}

// handleSetOnline is called by the broker's connect hook.
func (s *Server) handleSetOnline(w http.ResponseWriter, r *http.Request) {
	s.handlePresence(w, r, s.devices.SetOnline, "device online")
}

// handleSetOffline is called by the broker's disconnect hook.
func (s *Server) handleSetOffline(w http.ResponseWriter, r *http.Request) {
	s.handlePresence(w, r, s.devices.SetOffline, "device offline")
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request, set func(context.Context, string) error, message string) {
	var req deviceKeyRequest
	if !decodeBody(w, r, schemaDeviceKey, &req) {
		return
	}

	if err := set(r.Context(), req.DeviceKey); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, message, nil)
}
