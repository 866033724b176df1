package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/utils/response"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware creates a rate limiting middleware. A nil limiter disables
// limiting entirely, so the server still comes up when Redis is absent.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	if rateLimiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// If rate limiting fails, log error but allow request to proceed
			logger.GetDefault().ErrorWithContext(c.Request.Context(), "Rate limit check failed", err, map[string]interface{}{
				"client_ip": clientIP,
				"endpoint":  c.FullPath(),
			})
			c.Next()
			return
		}

		// Add rate limit headers
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// getRateLimitType maps the route pattern onto a limit bucket. Commits
// and hold creation are the requests that take seats away from other
// buyers, so they sit in the smallest buckets.
func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasSuffix(path, "/health"), strings.HasSuffix(path, "/ping"), strings.HasSuffix(path, "/status"):
		return RateLimitTypeHealth
	case strings.Contains(path, "/commit"):
		return RateLimitTypeCritical
	case strings.Contains(path, "/holds"), strings.HasSuffix(path, "/hold"), strings.HasSuffix(path, "/extend"):
		return RateLimitTypeHold
	case strings.Contains(path, "/sessions"):
		return RateLimitTypeSession
	case strings.Contains(path, "/charts"):
		return RateLimitTypePublic
	default:
		return RateLimitTypeDefault
	}
}

// getClientIP extracts the real client IP from the request
func getClientIP(c *gin.Context) string {
	// Check X-Forwarded-For header first (for load balancers/proxies)
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return c.ClientIP()
}
