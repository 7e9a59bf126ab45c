package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type contextKey string

// requestIDKey is the context key under which the request ID travels.
const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
