package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloudvault/internal/config"
	"cloudvault/internal/domain"
	"cloudvault/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsVerifier implements JWTVerifier over a jwt.Keyfunc. Keys come either
// from a JWKS endpoint (asymmetric algorithms) or from a shared HMAC secret.
type ClaimsVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS endpoint.
// The JWKS keys are cached and refreshed in the background until Close.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "mode", "jwks", "jwks_url", jwksURL)

	return &ClaimsVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// NewHMACVerifier creates a verifier for HS256 tokens signed with secret.
func NewHMACVerifier(secret string, logger *slog.Logger) (JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}

	key := []byte(secret)
	logger.Info("JWT verifier initialized", "mode", "hmac")

	return &ClaimsVerifier{
		keyfunc: func(*jwt.Token) (any, error) { return key, nil },
		methods: []string{"HS256"},
		logger:  logger,
	}, nil
}

// NewVerifierFromConfig picks the JWKS verifier when a JWKS URL is
// configured, otherwise the HMAC verifier.
func NewVerifierFromConfig(cfg config.AuthConfig, logger *slog.Logger) (JWTVerifier, error) {
	if cfg.JWKSURL != "" {
		return NewJWTVerifier(cfg.JWKSURL, logger)
	}
	return NewHMACVerifier(cfg.JWTSecret, logger)
}

// VerifyToken validates a JWT token and extracts its claims.
func (v *ClaimsVerifier) VerifyToken(tokenString string) (*models.AuthClaims, error) {
	// WithValidMethods prevents algorithm confusion between HMAC and public keys
	token, err := jwt.ParseWithClaims(tokenString, &models.AuthClaims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AuthClaims)
	if !ok || !token.Valid {
		v.logger.Warn("token parsed without usable claims")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh, if any.
func (v *ClaimsVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
