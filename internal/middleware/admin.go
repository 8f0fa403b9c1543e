package middleware

import (
	"net/http"

	"edupulse/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired rejects any request whose token role is not admin. It must
// run after AuthRequired, which puts the role into the context; with no
// role set the request is refused rather than let through.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
