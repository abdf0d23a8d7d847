package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// SignResult is the outcome of signing a custom token
type SignResult struct {
	Token            string
	ExpiresAt        time.Time
	ExpiresInSeconds int
}

// Codec signs and verifies the platform's self-issued HMAC tokens. The
// secret is dedicated to this codec; config validation guarantees it is
// never shared with any other platform secret.
type Codec struct {
	secret   []byte
	validate *validator.Validate
}

// NewCodec creates a Codec with the dedicated custom-token secret
func NewCodec(secret []byte) *Codec {
	return &Codec{
		secret:   secret,
		validate: validator.New(),
	}
}

// Sign validates the payload against its schema, stamps iat/exp for the
// token type's lifetime tier, and signs with HS256. exp is always set here,
// never caller-supplied.
func (c *Codec) Sign(payload TokenPayload, tokenType TokenType) (*SignResult, error) {
	if err := c.validate.Struct(payload); err != nil {
		return nil, NewAuthError(AuthFailureTokenInvalid, "invalid token payload", err)
	}

	now := time.Now()
	expiresAt := now.Add(tokenType.TTL())

	claims := &CustomClaims{
		TenantID:    payload.TenantID,
		Email:       payload.Email,
		Name:        payload.Name,
		Role:        payload.Role,
		Permissions: payload.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign custom token: %w", err)
	}

	return &SignResult{
		Token:            signed,
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: int(time.Until(expiresAt).Round(time.Second).Seconds()),
	}, nil
}

// Verify checks signature, issuer, audience, and expiration in one pass.
// Expiration as the sole failure yields AuthFailureTokenExpired so callers
// can prompt a refresh instead of a full re-login; every other failure is
// AuthFailureTokenInvalid.
func (c *Codec) Verify(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		// A bad signature outranks expiry: an attacker-crafted token must
		// never be reported as merely expired.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, NewAuthError(AuthFailureTokenInvalid, "invalid signature", err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(AuthFailureTokenExpired, "token expired", err)
		}
		return nil, NewAuthError(AuthFailureTokenInvalid, "failed to parse token", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, NewAuthError(AuthFailureTokenInvalid, "invalid token", nil)
	}

	if !claims.Role.IsValid() {
		return nil, NewAuthError(AuthFailureTokenInvalid, "invalid role claim", nil)
	}

	return claims, nil
}

// Refresh issues a new short-lived access token, requiring the current token
// to still verify. Refreshing from an already-expired token is intentionally
// rejected here; that case must go through the longer-lived refresh or
// remember-me token instead.
func (c *Codec) Refresh(currentToken string, userInfo TokenPayload) (*SignResult, error) {
	claims, err := c.Verify(currentToken)
	if err != nil {
		return nil, err
	}

	if claims.Subject != userInfo.Subject {
		return nil, NewAuthError(AuthFailureTokenInvalid, "subject mismatch", nil)
	}

	return c.Sign(userInfo, TokenAccess)
}
