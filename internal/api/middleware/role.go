package middleware

import (
	"github.com/gin-gonic/gin"
)

// CallerRole reads the caller's role header and flags administrators as
// privileged. Privileged submissions bypass the enrollment window gate but
// never the validation rules.
func CallerRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader("X-Caller-Role")
		c.Set("caller_role", role)
		c.Set("privileged", role == "administrator")
		c.Next()
	}
}
