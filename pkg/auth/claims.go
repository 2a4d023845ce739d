package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT the identity service issues. This
// service only verifies tokens; it never mints them.
type AccessTokenClaims struct {
	UserID uuid.UUID          `json:"user_id"`
	Role   enums.UserRole     `json:"role"`
	Tier   enums.RetailerTier `json:"tier,omitempty"`
	jwt.RegisteredClaims
}
