package api

import (
	"net/http"

	"github.com/nerrad567/iotconnect-core/internal/audit"
)

type loginRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type requestKeyRequest struct {
	Name string `json:"name"`
}

type createControllableRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type getControllableRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

// handleLogin starts email verification and returns the verification ID.
// The token itself only travels by mail.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, schemaLogin, &req) {
		return
	}

	id, err := s.auth.RequestVerification(r.Context(), req.Email)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "verification sent", map[string]string{"id": id})
}

// handleVerify exchanges a verification ID and token for a session.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, schemaVerify, &req) {
		return
	}

	user, session, err := s.auth.Verify(r.Context(), req.ID, req.Token)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.auditLog(audit.ActionVerify, audit.EntityUser, user.ID, user.Email, nil)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session,
		Path:     "/",
		MaxAge:   int(s.auth.Sessions().TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	})
	writeSuccess(w, "verified", map[string]string{"token": session})
}

// handleLogout clears the session cookie. Sessions are stateless, so a
// token copied elsewhere stays valid until it expires.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	})
	writeSuccess(w, "logged out", nil)
}

// handleRequestKey issues a device key and pass for the session holder.
// The pass is only ever returned here.
func (s *Server) handleRequestKey(w http.ResponseWriter, r *http.Request) {
	var req requestKeyRequest
	if !decodeBody(w, r, schemaRequestKey, &req) {
		return
	}

	email := userEmail(r.Context())
	issued, err := s.devices.IssueDevice(r.Context(), email, req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.auditLog(audit.ActionIssueDevice, audit.EntityDevice, issued.ID, email, map[string]any{"name": req.Name})

	writeSuccess(w, "", issued)
}

func (s *Server) handleCreateControllable(w http.ResponseWriter, r *http.Request) {
	var req createControllableRequest
	if !decodeBody(w, r, schemaCreateControllable, &req) {
		return
	}

	email := userEmail(r.Context())
	c, err := s.controllables.Create(r.Context(), email, req.DeviceID, req.Name, req.Category)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.auditLog(audit.ActionCreateControllable, audit.EntityControllable, c.ID, email, map[string]any{
		"device_id": c.DeviceID,
		"category":  c.Category,
	})

	writeSuccess(w, "", c)
}

func (s *Server) handleGetControllable(w http.ResponseWriter, r *http.Request) {
	var req getControllableRequest
	if !decodeBody(w, r, schemaGetControllable, &req) {
		return
	}

	c, err := s.controllables.Lookup(r.Context(), userEmail(r.Context()), req.DeviceID, req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, "", c)
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	names, err := s.controllables.Categories(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "", names)
}

// handleGetUser returns the session holder's account, broker credentials
// included.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.GetUser(r.Context(), userEmail(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "", u)
}
