package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorCtxKey is the Gin context key used to store the authenticated operator.
const operatorCtxKey = "operator"

// APIKeyMiddleware guards the ops endpoints by mapping X-API-Key → operator name.
// An empty key set rejects every request.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader("X-API-Key"))
		operator, ok := match(keys, presented)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(operatorCtxKey, operator)
		c.Next()
	}
}

// Operator returns the authenticated operator name from the request context.
func Operator(c *gin.Context) string {
	v, _ := c.Get(operatorCtxKey)
	s, _ := v.(string)
	return s
}

// match compares in constant time against every configured key.
func match(keys map[string]string, presented string) (string, bool) {
	if presented == "" {
		return "", false
	}
	var (
		operator string
		found    bool
	)
	for k, name := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(presented)) == 1 {
			operator, found = name, true
		}
	}
	return operator, found
}
