package httpserver

import (
	"github.com/gin-gonic/gin"
)

// InternalAuth rejects requests that did not come through the gateway (or a
// trusted sibling service). Network topology alone is not trusted to provide
// isolation; every inbound REST request must carry the internal secret.
func InternalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("x-internal-token") != secret {
			c.AbortWithStatusJSON(403, gin.H{"success": false, "error": "Forbidden: Invalid internal token"})
			return
		}
		c.Next()
	}
}
