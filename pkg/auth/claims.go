package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to storefront customers.
// The jti doubles as the session access id.
type AccessTokenClaims struct {
	CustomerID string `json:"customer_id"`
	jwt.RegisteredClaims
}
