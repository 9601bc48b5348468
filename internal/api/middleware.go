package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dalia-manager/internal/token"
	"dalia-manager/internal/util"

	"github.com/gin-gonic/gin"
)

const operatorClaimsKey = "operator_claims"

// AuthMiddleware rejects requests without a valid bearer token and stashes
// the operator claims in the request context
func AuthMiddleware(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(operatorClaimsKey, claims)
		c.Next()
	}
}

// OperatorClaims pulls the authenticated operator out of the gin context
func OperatorClaims(c *gin.Context) (*token.Claims, bool) {
	val, ok := c.Get(operatorClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*token.Claims)
	return claims, ok
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
