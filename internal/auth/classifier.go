package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// TokenKind is the verification path an incoming bearer token routes to
type TokenKind string

const (
	// KindCustom routes to the platform's own HMAC codec
	KindCustom TokenKind = "custom"

	// KindPlatformSession routes to the external identity provider
	KindPlatformSession TokenKind = "platform-session"

	// KindNone means no usable bearer token was presented
	KindNone TokenKind = "none"
)

// Classify inspects the raw Authorization header value and decides which
// verifier the token belongs to. It performs no signature verification; the
// subsequent verifier is the security boundary, this is only routing.
//
// Ambiguous tokens (payload undecodable, iss/aud missing) default to the
// platform-session path for backward compatibility with sessions issued
// before the custom codec existed.
func Classify(authorization string) (token string, kind TokenKind) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", KindNone
	}

	token = strings.TrimSpace(rest)
	if token == "" {
		return "", KindNone
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", KindNone
	}

	// Peek at the unverified payload
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return token, KindPlatformSession
	}

	var payload struct {
		Issuer   string          `json:"iss"`
		Audience json.RawMessage `json:"aud"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return token, KindPlatformSession
	}

	if payload.Issuer == TokenIssuer && audienceMatches(payload.Audience) {
		return token, KindCustom
	}

	return token, KindPlatformSession
}

// audienceMatches accepts both string and []string encodings of aud
func audienceMatches(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single == TokenAudience
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, aud := range many {
			if aud == TokenAudience {
				return true
			}
		}
	}
	return false
}
