package middleware

import (
	"strings"

	"tiendapos/internal/apierror"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ClaimsKey = "claims"
)

// JWTAuth validates the Bearer access token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			AbortWithError(c, apierror.ErrUnauthorized)
			return
		}

		claims, err := service.ParseToken(secret, strings.TrimPrefix(header, "Bearer "), service.TokenAccess)
		if err != nil {
			AbortWithError(c, apierror.New(apierror.KindUnauthorized, "Token invalido o expirado"))
			return
		}
		if _, err := claims.Actor(); err != nil {
			AbortWithError(c, apierror.New(apierror.KindUnauthorized, "Token mal formado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Role] {
			AbortWithError(c, apierror.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// GetActor returns the authenticated caller. JWTAuth has already checked that
// the claims convert.
func GetActor(c *gin.Context) service.Actor {
	claims := GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	actor, _ := claims.Actor()
	return actor
}
