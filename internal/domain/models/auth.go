package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims is the JWT claim set issued by the identity provider.
// Only the subject is authoritative; it becomes the owner id of every entity.
type AuthClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}
