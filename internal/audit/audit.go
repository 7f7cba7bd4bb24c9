package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry records who changed billing data or produced an export.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Period        string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Filter narrows an audit listing. Empty fields match everything.
type Filter struct {
	Action string
	Period string
	Limit  int
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// Reader lists audit entries, newest first.
type Reader interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// NewID returns a random entry id prefixed with the creation date, so ids
// sort roughly by time.
func NewID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "aud-" + time.Now().UTC().Format("20060102") + "-" + hex.EncodeToString(buf)
}

// DigestJSON returns the SHA256 hex digest of a metadata payload.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
