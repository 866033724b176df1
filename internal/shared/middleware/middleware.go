package middleware

import (
	"net/http"
	"strings"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/utils/response"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// SessionAuth validates the bearer token minted at session creation.
func SessionAuth() gin.HandlerFunc {
	return SessionAuthWithConfig(config.Load())
}

// SessionAuthWithConfig validates the session token and binds its claims
// to the request context. When the route carries a session id, it must be
// the one the token was minted for.
func SessionAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "missing authorization header", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Session.TokenSecret), nil
		})

		if err != nil || !token.Valid {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid or expired session token", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired session token", nil, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid session token", nil, nil)
			c.Abort()
			return
		}

		if tokenType, ok := claims["type"]; !ok || tokenType != "session" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token type", nil, nil)
			c.Abort()
			return
		}

		sessionID, _ := claims["session_id"].(string)
		if pathID := c.Param("sessionId"); pathID != "" && pathID != sessionID {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "session token does not match session id", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusForbidden, "token was not issued for this session", nil, nil)
			c.Abort()
			return
		}

		c.Set("session_id", sessionID)
		c.Set("chart_id", claims["chart_id"])

		c.Next()
	}
}

// AdminAuth guards operational endpoints with a static API key.
func AdminAuth() gin.HandlerFunc {
	return AdminAuthWithConfig(config.Load())
}

// AdminAuthWithConfig checks X-Admin-Key against the configured key.
// An empty configured key disables the guarded endpoints outright.
func AdminAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminAPIKey == "" {
			response.RespondJSON(c, "error", http.StatusForbidden, "Operational endpoints are disabled", nil, nil)
			c.Abort()
			return
		}

		if c.GetHeader("X-Admin-Key") != cfg.AdminAPIKey {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid admin key", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid admin key", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORS middleware
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Admin-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
