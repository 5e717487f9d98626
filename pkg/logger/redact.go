package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
)

const redacted = "[REDACTED]"

var redactionOn atomic.Bool

func init() {
	redactionOn.Store(true)
}

func setRedaction(enabled bool) {
	redactionOn.Store(enabled)
}

// isRedactKey reports keys whose values must never reach the log sink.
func isRedactKey(key string) bool {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "token"),
		strings.Contains(key, "authorization"),
		strings.Contains(key, "password"),
		strings.Contains(key, "secret"),
		strings.Contains(key, "cookie"),
		strings.Contains(key, "email"):
		return true
	default:
		return false
	}
}

func isHashKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "user_id")
}

func hashValue(val interface{}) string {
	raw := fmt.Sprint(val)
	if raw == "" {
		return ""
	}
	if !redactionOn.Load() {
		return raw
	}
	sum := sha256.Sum256([]byte(raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

// sanitizeString returns the loggable form of a string field.
func sanitizeString(key, value string) string {
	if !redactionOn.Load() {
		return value
	}
	if isRedactKey(key) {
		return redacted
	}
	if isHashKey(key) {
		return hashValue(value)
	}
	if looksLikeJWT(value) {
		return redacted
	}
	return value
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}
