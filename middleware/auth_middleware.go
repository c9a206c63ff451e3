package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pendeploy-nightly/dto"
)

// BearerAuth creates a middleware that accepts only requests carrying the given bearer token
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Message: "missing authorization header",
			})
			return
		}

		requestToken, found := strings.CutPrefix(header, "Bearer ")
		if !found || requestToken != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Message: "unauthorized",
			})
			return
		}

		c.Next()
	}
}
