package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/iotconnect-core/internal/audit"
)

// auditChanSize is the buffer size for the async audit channel.
// Entries beyond this are dropped so requests never wait on audit writes.
const auditChanSize = 256

// auditLog enqueues an audit entry for asynchronous write (best-effort).
func (s *Server) auditLog(action, entityType, entityID, actor string, details map[string]any) {
	if s.auditRepo == nil || s.auditCh == nil {
		return
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Source:     "api",
		Details:    details,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit channel full, dropping entry",
			"action", action,
			"entity_type", entityType,
		)
	}
}

// drainAuditLog writes queued entries serially until ctx is cancelled,
// then flushes whatever is still buffered.
func (s *Server) drainAuditLog(ctx context.Context) {
	write := func(entry *audit.Entry) {
		if err := s.auditRepo.Create(context.Background(), entry); err != nil {
			s.logger.Error("audit write failed",
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"error", err,
			)
		}
	}

	for {
		select {
		case entry := <-s.auditCh:
			write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					write(entry)
				default:
					return
				}
			}
		}
	}
}

// handleGetActivity returns the session holder's audit trail, most recent
// first. Query parameters: action, limit (max 200), offset.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeActivity(w, nil)
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Actor:  userEmail(r.Context()),
		Action: q.Get("action"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	entries, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeActivity(w, entries)
}

// activityResponse always carries a data array, even when empty.
type activityResponse struct {
	Success bool          `json:"success"`
	Data    []audit.Entry `json:"data"`
}

func writeActivity(w http.ResponseWriter, entries []audit.Entry) {
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Success: true, Data: entries})
}
