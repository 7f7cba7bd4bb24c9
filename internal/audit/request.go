package audit

import (
	"encoding/json"
	"net/http"

	"kitchen-billing/internal/auth"
)

// LogRequest records an action performed through an HTTP request.
// A nil logger is a no-op; write failures are ignored.
func LogRequest(logger Logger, r *http.Request, action, resourceType, resourceID, period string, meta map[string]any) {
	if logger == nil || r == nil {
		return
	}
	var payload []byte
	if len(meta) > 0 {
		payload, _ = json.Marshal(meta)
	}
	_ = logger.Log(r.Context(), Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Period:       period,
		Metadata:     payload,
		IP:           ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
