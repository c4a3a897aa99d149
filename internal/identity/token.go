// README: HMAC bearer tokens carrying actor id and role (dev/local auth path).
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"uride/internal/types"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

func (t *TokenIssuer) Issue(a Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(a.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifyToken resolves a raw bearer token to an actor. It satisfies the HTTP
// middleware's verifier contract; ctx is unused for local HMAC validation.
func (t *TokenIssuer) VerifyToken(_ context.Context, raw string) (Actor, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Actor{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Actor{}, jwt.ErrSignatureInvalid
	}
	role := Role(claims.Role)
	if role != RoleRider && role != RoleDriver {
		return Actor{}, ErrNotAuthenticated
	}
	return Actor{ID: types.ID(claims.Subject), Role: role}, nil
}
