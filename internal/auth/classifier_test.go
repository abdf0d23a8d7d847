package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Helper to build a fake JWT with an arbitrary payload. The signature is
// garbage; Classify never checks it.
func fakeJWT(t *testing.T, payload map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".c2ln"
}

func TestClassify_CustomToken(t *testing.T) {
	token := fakeJWT(t, map[string]any{"iss": TokenIssuer, "aud": TokenAudience, "sub": "user-1"})

	got, kind := Classify("Bearer " + token)

	assert.Equal(t, KindCustom, kind)
	assert.Equal(t, token, got)
}

func TestClassify_CustomTokenAudienceArray(t *testing.T) {
	token := fakeJWT(t, map[string]any{"iss": TokenIssuer, "aud": []string{"other", TokenAudience}})

	_, kind := Classify("Bearer " + token)

	assert.Equal(t, KindCustom, kind)
}

func TestClassify_ForeignIssuerIsPlatformSession(t *testing.T) {
	token := fakeJWT(t, map[string]any{"iss": "https://provider.example.com/auth/v1", "aud": "authenticated"})

	got, kind := Classify("Bearer " + token)

	assert.Equal(t, KindPlatformSession, kind)
	assert.Equal(t, token, got)
}

func TestClassify_MatchingIssuerWrongAudience(t *testing.T) {
	token := fakeJWT(t, map[string]any{"iss": TokenIssuer, "aud": "someone-else"})

	_, kind := Classify("Bearer " + token)

	assert.Equal(t, KindPlatformSession, kind)
}

func TestClassify_UndecodablePayloadFallsBack(t *testing.T) {
	// Payload segment is not valid base64url
	_, kind := Classify("Bearer aGVhZGVy.!!!notbase64!!!.c2ln")

	assert.Equal(t, KindPlatformSession, kind)
}

func TestClassify_PayloadNotJSONFallsBack(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json at all"))

	_, kind := Classify("Bearer " + header + "." + payload + ".c2ln")

	assert.Equal(t, KindPlatformSession, kind)
}

func TestClassify_None(t *testing.T) {
	cases := []struct {
		name          string
		authorization string
	}{
		{"empty header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer "},
		{"bearer alone", "Bearer"},
		{"two segments", "Bearer abc.def"},
		{"four segments", "Bearer a.b.c.d"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, kind := Classify(tc.authorization)
			assert.Equal(t, KindNone, kind)
			assert.Empty(t, token)
		})
	}
}

func TestClassify_SchemeCaseInsensitive(t *testing.T) {
	token := fakeJWT(t, map[string]any{"iss": TokenIssuer, "aud": TokenAudience})

	_, kind := Classify("bearer " + token)
	assert.Equal(t, KindCustom, kind)

	_, kind = Classify("BEARER " + token)
	assert.Equal(t, KindCustom, kind)
}
