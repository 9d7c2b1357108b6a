package auth

import "cloudvault/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// The middleware only needs the verified subject; how keys are obtained is
// left to the implementation.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
