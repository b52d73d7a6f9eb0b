package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go-courier/internal/infrastructure/identity"

	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key the verified user identifier is stored
// under. Handlers read it back via CallerIdentity, never from the request.
const identityKey = "courier.identity"

// RequireIdentity verifies the Authorization bearer credential and stores the
// resolved user identifier in the request context. Requests without a valid
// credential are rejected with 401.
func RequireIdentity(verifier *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}

		userID, err := verifier.Resolve(token)
		if err != nil {
			msg := "invalid or expired credential"
			if errors.Is(err, identity.ErrMissingCredential) {
				msg = "missing credential"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(identityKey, userID)
		c.Next()
	}
}

// CallerIdentity returns the verified user identifier stored by
// RequireIdentity, or the empty string when the middleware did not run.
func CallerIdentity(c *gin.Context) string {
	v, ok := c.Get(identityKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
