package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key grammar: "rl:" + scope + ":" + endpointId + ":" + subjectId.
// Subjects differ by trust level: public endpoints key on a salted hash of
// the client IP, authenticated ones on the literal (tenant, user) pair.

// PublicKey builds a rate-limit key for an unauthenticated endpoint. The
// salt keeps the IP hash non-reversible and deployment-specific, so the key
// doubles as a privacy control.
func PublicKey(scope, endpointID, clientIP, salt string) string {
	sum := sha256.Sum256([]byte(salt + clientIP))
	return fmt.Sprintf("rl:%s:%s:%s", scope, endpointID, hex.EncodeToString(sum[:]))
}

// UserKey builds a rate-limit key for an authenticated endpoint. Tenant and
// user ids are embedded directly; they are already access-controlled.
func UserKey(scope, endpointID, tenantID, userID string) string {
	return fmt.Sprintf("rl:%s:%s:%s:%s", scope, endpointID, tenantID, userID)
}
