package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dunereach/dune-server/internal/auth"
	"github.com/gin-gonic/gin"
)

const claimsContextKey = "claims"

// bearerMiddleware validates the JWT in the Authorization header and stores
// the decoded claims in the request context.
func (rs *RestServer) bearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Access denied: no token provided",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Access denied: malformed authorization header",
			})
			c.Abort()
			return
		}

		claims, err := rs.tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Invalid token",
			})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// adminMiddleware requires an admin role claim. Must run after
// bearerMiddleware.
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: "Missing authentication context",
			})
			c.Abort()
			return
		}

		if err := rs.tokens.RequireRole(claims, auth.RoleAdmin); err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				c.JSON(http.StatusForbidden, GenericResponse{
					Success: false,
					Message: "Access denied: insufficient permissions",
				})
			} else {
				c.JSON(http.StatusUnauthorized, GenericResponse{
					Success: false,
					Message: "Invalid token",
				})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

func claimsFromContext(c *gin.Context) *auth.Claims {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
