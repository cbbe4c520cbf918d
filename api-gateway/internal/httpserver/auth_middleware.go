package httpserver

import (
	"github.com/gin-gonic/gin"

	"decp/pkg/util"
)

// identityHeaders are only ever set by the gateway. Client-supplied values are
// stripped before any proxying so a caller cannot forge an identity.
var identityHeaders = []string{"x-user-id", "x-user-role", "x-internal-token"}

// Auth verifies the end-user bearer token and injects the trusted identity
// headers downstream services rely on. Downstream services never verify the
// token themselves; they check the internal secret and trust these headers.
func Auth(jwtSecret, internalSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range identityHeaders {
			c.Request.Header.Del(h)
		}

		token := util.ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"success": false, "error": "Unauthorized: No token provided"})
			return
		}

		userID, role, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"success": false, "error": "Unauthorized: Invalid token"})
			return
		}

		c.Request.Header.Set("x-user-id", userID)
		c.Request.Header.Set("x-user-role", role)
		c.Request.Header.Set("x-internal-token", internalSecret)

		c.Next()
	}
}

// InjectInternal stamps the internal secret without requiring a bearer token.
// Used for the auth-issuance path, which is the login flow itself.
func InjectInternal(internalSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range identityHeaders {
			c.Request.Header.Del(h)
		}
		c.Request.Header.Set("x-internal-token", internalSecret)
		c.Next()
	}
}
