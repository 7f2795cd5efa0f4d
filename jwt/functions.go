package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const Audience = "biomap"

// Claims identifies the requester. IsAdmin is trusted as issued.
type Claims struct {
	IsAdmin bool `json:"isAdmin,omitempty"`
	gojwt.RegisteredClaims
}

// Create creates an HS256 signed JWT for userID.
func Create(userID string, isAdmin bool, issuer string, ttl time.Duration, secret []byte) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if len(secret) == 0 {
		return "", fmt.Errorf("signing secret is empty")
	}

	now := time.Now()
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  userID,
			Audience: gojwt.ClaimStrings{Audience},
			IssuedAt: gojwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Validate checks is jwt signature valid and not expired
func Validate(token string, issuer string, secret []byte) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithAudience(Audience),
		gojwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, gojwt.WithIssuer(issuer))
	}

	var claims Claims
	_, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("jwt has no user id")
	}

	return &claims, nil
}
