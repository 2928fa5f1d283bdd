package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthActorKey  = "auth_actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates a bearer token. *auth.JWTService implements it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// SkipPaths are full paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes skip authentication for every path under them
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// JWTAuthMiddleware authenticates the request with the bearer token and
// stores the caller's fulfillment.AuthContext on the gin context
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		tokenString, ok := strings.CutPrefix(header, BearerPrefix)
		if header == "" || !ok || tokenString == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "missing or malformed authorization header")
			return
		}

		claims, err := cfg.Validator.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "token validation failed")
			return
		}
		actor, err := claims.AuthContext()
		if err != nil {
			abortUnauthorized(c, log, err, "token carries invalid claims")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(AuthActorKey, actor)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, text := dto.ErrCodeUnauthorized, "authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, text = dto.ErrCodeTokenExpired, "token has expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid):
		code, text = dto.ErrCodeTokenInvalid, "invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, text, GetRequestID(c)))
}

// GetAuthContext returns the authenticated caller
func GetAuthContext(c *gin.Context) (fulfillment.AuthContext, bool) {
	v, ok := c.Get(AuthActorKey)
	if !ok {
		return fulfillment.AuthContext{}, false
	}
	actor, ok := v.(fulfillment.AuthContext)
	return actor, ok
}

// GetJWTClaims returns the validated claims
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequireRoles rejects callers whose role is not listed.
// It must run after JWTAuthMiddleware.
func RequireRoles(roles ...fulfillment.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetAuthContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "authentication required", GetRequestID(c)))
			return
		}
		if err := actor.RequireAnyRole(roles...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, err.Error(), GetRequestID(c)))
			return
		}
		c.Next()
	}
}
