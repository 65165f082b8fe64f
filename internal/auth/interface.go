package auth

import "breakdown/internal/domain/models"

// JWTVerifier validates bearer tokens.
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid token or domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
