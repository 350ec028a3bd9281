package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuth lets a request through only when its accesstoken header matches
// adminToken. With no admin token configured every request is refused.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(adminToken) == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			c.Abort()
			return
		}

		accessToken := c.GetHeader("accesstoken")

		if len(accessToken) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(accessToken), []byte(adminToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authentication"})
			c.Abort()
			return
		}

		c.Next()
	}
}
