package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/auth"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

const claimsContextKey = "auth_claims"

// jwtMiddleware validates the bearer token and attaches its claims to the
// echo context.
func (s *Server) jwtMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeaderName)
			if header == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing authorization header"})
			}
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid authorization header"})
			}

			claims, err := auth.ParseToken(parts[1], s.jwtSecret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// getClaims returns the claims attached by jwtMiddleware, or nil.
func getClaims(c echo.Context) *auth.Claims {
	if claims, ok := c.Get(claimsContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// adminOnly rejects requests whose token does not carry the ADMIN role.
func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := getClaims(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			return c.JSON(http.StatusForbidden, errorResponse{Error: "admin role required"})
		}
		return next(c)
	}
}
