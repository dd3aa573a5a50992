// Package middleware provides HTTP middleware.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/jwt"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
)

// RevocationChecker reports whether a token has been revoked (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthConfig holds auth middleware dependencies.
type AuthConfig struct {
	JWTManager *jwt.Manager
	Revocation RevocationChecker // optional
	Role       string            // required role, empty to skip the check
}

// Context keys.
const (
	ContextKeyAdminID = "admin_id"
	ContextKeyRole    = "role"
	ContextKeyClaims  = "claims"
	ContextKeyToken   = "token"
)

// Auth authenticates requests with a bearer token.
func Auth(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		claims, err := config.JWTManager.Parse(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, "session expired, please log in again")
			} else {
				response.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		if config.Revocation != nil {
			revoked, err := config.Revocation.IsRevoked(c.Request.Context(), token)
			if err == nil && revoked {
				response.Unauthorized(c, "session expired, please log in again")
				c.Abort()
				return
			}
		}

		if config.Role != "" && claims.Role != config.Role {
			response.Forbidden(c, "access denied")
			c.Abort()
			return
		}

		c.Set(ContextKeyAdminID, claims.AdminID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyToken, token)

		c.Next()
	}
}

// AdminAuth authenticates staff requests.
func AdminAuth(jwtManager *jwt.Manager, revocation RevocationChecker) gin.HandlerFunc {
	return Auth(&AuthConfig{
		JWTManager: jwtManager,
		Revocation: revocation,
		Role:       jwt.RoleAdmin,
	})
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// GetAdminID returns the authenticated admin id, 0 when unauthenticated.
func GetAdminID(c *gin.Context) int64 {
	adminID, exists := c.Get(ContextKeyAdminID)
	if !exists {
		return 0
	}
	return adminID.(int64)
}

// GetRole returns the authenticated role.
func GetRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetToken returns the raw bearer token of the request.
func GetToken(c *gin.Context) string {
	token, exists := c.Get(ContextKeyToken)
	if !exists {
		return ""
	}
	return token.(string)
}

// GetClaims returns the parsed claims of the request.
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}
