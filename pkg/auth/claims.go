package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload carries the identity fields minted into a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	IsAdmin bool
	JTI     string
}

// AccessTokenClaims is the custom claim set embedded in access tokens.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"uid"`
	IsAdmin bool      `json:"adm"`
	jwt.RegisteredClaims
}
