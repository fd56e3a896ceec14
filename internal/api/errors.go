package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/nerrad567/iotconnect-core/internal/auth"
	"github.com/nerrad567/iotconnect-core/internal/controllable"
	"github.com/nerrad567/iotconnect-core/internal/device"
)

// Error codes carried in the error_code field of every failure.
const (
	CodeUnknown              = "000"
	CodeServiceKeyInvalid    = "001"
	CodeBodyIncomplete       = "002"
	CodeDeviceNotFound       = "003"
	CodeVerificationNotFound = "004"
	CodeTokenWrong           = "005"
	CodeDeviceUnauthorized   = "006"
	CodeDeviceWrongPassword  = "007"
	CodeUserUnauthorized     = "008"
	CodeCategoryNotFound     = "009"
	CodeControllableNotFound = "010"
	CodeDuplicate            = "011"
	CodeUserNotFound         = "012"
	CodeVerificationExpired  = "013"
	CodeUnavailable          = "014"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
}

// Response is the body of a successful JSON request.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorMapping ties a domain sentinel to its wire representation.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable is checked in order with errors.Is; first match wins.
var errorTable = []errorMapping{
	{context.DeadlineExceeded, http.StatusServiceUnavailable, CodeUnavailable, "service temporarily unavailable"},
	{auth.ErrInvalidEmail, http.StatusBadRequest, CodeBodyIncomplete, "invalid email address"},
	{device.ErrInvalidName, http.StatusBadRequest, CodeBodyIncomplete, "invalid device name"},
	{controllable.ErrInvalidName, http.StatusBadRequest, CodeBodyIncomplete, "invalid controllable name"},
	{auth.ErrVerificationNotFound, http.StatusNotFound, CodeVerificationNotFound, "verification not found"},
	{auth.ErrVerificationExpired, http.StatusUnauthorized, CodeVerificationExpired, "verification expired"},
	{auth.ErrTokenMismatch, http.StatusUnauthorized, CodeTokenWrong, "verification token is wrong"},
	{auth.ErrSessionExpired, http.StatusUnauthorized, CodeUserUnauthorized, "session expired"},
	{auth.ErrSessionInvalid, http.StatusUnauthorized, CodeUserUnauthorized, "user unauthorized"},
	{auth.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "user not found"},
	{device.ErrDeviceNotFound, http.StatusNotFound, CodeDeviceNotFound, "device not found"},
	{device.ErrWrongPassword, http.StatusUnauthorized, CodeDeviceWrongPassword, "device password is wrong"},
	{device.ErrUnauthorized, http.StatusUnauthorized, CodeDeviceUnauthorized, "device unauthorized"},
	{device.ErrDeviceKeyConflict, http.StatusConflict, CodeDuplicate, "device key conflict, retry"},
	{controllable.ErrCategoryNotFound, http.StatusNotFound, CodeCategoryNotFound, "category not found"},
	{controllable.ErrControllableNotFound, http.StatusNotFound, CodeControllableNotFound, "controllable not found"},
	{controllable.ErrDuplicate, http.StatusConflict, CodeDuplicate, "controllable already exists"},
	{controllable.ErrTopicConflict, http.StatusConflict, CodeDuplicate, "topic conflict, retry"},
	{auth.ErrUserConflict, http.StatusConflict, CodeDuplicate, "account conflict, retry"},
}

// classify maps an error to its status, code and client-safe message.
// Unrecognised errors become 000 with a generic message so storage
// details never reach the client.
func classify(err error) (int, string, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, CodeUnknown, "internal server error"
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeText writes a plain-text success body, used by device routes.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body)) //nolint:errcheck // best-effort write
}

// writeSuccess writes {"success":true, ...}.
func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Message:   message,
		Success:   false,
		ErrorCode: code,
	})
}

// writeDomainError classifies err and writes the envelope. Internal errors
// are logged with the request ID.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
	writeError(w, status, code, message)
}
