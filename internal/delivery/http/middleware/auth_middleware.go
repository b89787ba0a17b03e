package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"exec-marketplace-backend/config"
	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token and loads the viewer's account
// so downstream code sees a trusted (viewerID, role, plan tier) triple. The
// plan tier always comes from the accounts table, never from token claims.
func AuthMiddleware(jwksProvider *auth.Provider, cfg *config.Config, accounts domain.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
				if cfg.JWTSecret == "" {
					return nil, fmt.Errorf("HS256 token received but JWT_SECRET is not configured")
				}
				return []byte(cfg.JWTSecret), nil
			}
			if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
				return jwksProvider.KeyFunc(token)
			}
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		})
		if err != nil || !token.Valid {
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Invalid claims", nil)
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			response.Error(c, http.StatusUnauthorized, "Invalid claims", nil)
			c.Abort()
			return
		}

		// Fresh account lookup: role and plan tier in the token may be stale.
		account, err := accounts.GetByID(c.Request.Context(), sub)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Account not found", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeyViewerID), account.ID)
		c.Set(string(domain.KeyViewerRole), account.Role)
		c.Set(string(domain.KeyPlanTier), string(account.PlanTier))

		c.Next()
	}
}

// OptionalAuthMiddleware resolves the viewer when a token is present but
// lets anonymous requests through: search runs in public mode with maximal
// redaction when there is no verified identity.
func OptionalAuthMiddleware(jwksProvider *auth.Provider, cfg *config.Config, accounts domain.AccountRepository) gin.HandlerFunc {
	authed := AuthMiddleware(jwksProvider, cfg, accounts)
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		authed(c)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
