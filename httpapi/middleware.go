package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "devconnect/errors"
)

const identityKey = "identity"

// authRequired resolves the bearer token into a user identity for each
// request. The sync API has no session state; every request is authenticated
// on its own.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.Reason(apperrors.ErrAuthentication)})
			return
		}
		identity, err := s.verifier.Identify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.Reason(err)})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}
