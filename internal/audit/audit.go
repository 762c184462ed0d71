// Package audit records who did what to which ledger resource.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"
)

// Entry is one audited action. UserID identifies the authenticated user,
// CardID the card an invoice or purchase action touched, when there is
// one. The metadata digest makes after-the-fact tampering detectable.
type Entry struct {
	ID            string
	UserID        string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	CardID        string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger persists audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Digest returns the hex SHA-256 of a metadata payload, empty for empty
// payloads.
func Digest(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ClientIP resolves the originating address of a request, honoring the
// forwarding headers a reverse proxy sets before falling back to the
// socket peer.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
