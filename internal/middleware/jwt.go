package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bitcampus/timetable-api/pkg/config"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
	"github.com/bitcampus/timetable-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing verified JWT claims.
const ContextClaimsKey = "currentClaims"

// JWT protects routes by requiring a valid HS256 bearer token.
func JWT(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		if len(cfg.Audience) > 0 {
			opts = append(opts, jwt.WithAudience(cfg.Audience[0]))
		}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil || !token.Valid {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireRole restricts a route to the listed roles. It expects JWT to have
// run first.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = true
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextClaimsKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(jwt.MapClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)
		if !allowed[strings.ToLower(role)] {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
