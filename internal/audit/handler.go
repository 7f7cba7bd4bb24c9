package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// HistoryHandler serves GET /api/v1/audit.
type HistoryHandler struct {
	reader Reader
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(reader Reader) (*HistoryHandler, error) {
	if reader == nil {
		return nil, errors.New("audit handler: nil reader")
	}
	return &HistoryHandler{reader: reader}, nil
}

type entryDTO struct {
	ID           string          `json:"id"`
	Actor        string          `json:"actor,omitempty"`
	Role         string          `json:"role,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type,omitempty"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Period       string          `json:"period,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ServeHTTP lists entries filtered by the action, period and limit query parameters.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	filter := Filter{Action: query.Get("action"), Period: query.Get("period")}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}
	if filter.Period != "" {
		if _, err := time.Parse("2006-01", filter.Period); err != nil {
			http.Error(w, "invalid period", http.StatusBadRequest)
			return
		}
	}

	entries, err := h.reader.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	resp := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryDTO{
			ID:           e.ID,
			Actor:        e.Actor,
			Role:         e.Role,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Period:       e.Period,
			Metadata:     e.Metadata,
			CreatedAt:    e.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
