// README: Bearer-token authentication; attaches the actor to the request context.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
)

// ActorVerifier resolves a raw bearer token to an actor. Both the local HMAC
// issuer and the Firebase verifier satisfy it.
type ActorVerifier interface {
	VerifyToken(ctx context.Context, raw string) (identity.Actor, error)
}

func Auth(verifier ActorVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		actor, err := verifier.VerifyToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}
