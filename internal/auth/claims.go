package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"prosektor-api/internal/domain"
)

// Fixed claims for the platform's self-issued token. These never change and
// are what the classifier keys on.
const (
	TokenIssuer   = "prosektor:auth"
	TokenAudience = "prosektor:api"
)

// TokenType selects the lifetime tier of a custom token
type TokenType string

const (
	TokenAccess     TokenType = "access"
	TokenRefresh    TokenType = "refresh"
	TokenRememberMe TokenType = "remember_me"
)

// TTL returns the lifetime for the token type. Unknown types get the access
// lifetime, the shortest tier.
func (t TokenType) TTL() time.Duration {
	switch t {
	case TokenRefresh:
		return 7 * 24 * time.Hour
	case TokenRememberMe:
		return 30 * 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}

// CustomClaims is the wire format of the platform's custom JWT
type CustomClaims struct {
	TenantID    string      `json:"tenant_id"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenPayload is the signer-side input, validated against a schema before
// signing. exp/iat/iss/aud are never caller-supplied; the codec sets them.
type TokenPayload struct {
	Subject     string      `validate:"required"`
	TenantID    string      `validate:"required"`
	Email       string      `validate:"required,email"`
	Name        string      `validate:"-"`
	Role        domain.Role `validate:"required,oneof=super_admin owner admin editor viewer"`
	Permissions []string    `validate:"-"`
}

// Principal converts verified claims into a domain principal
func (c *CustomClaims) Principal() domain.Principal {
	return domain.Principal{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
	}
}
