// Package middleware provides HTTP middleware for the contact backend API.
package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/brochure-contact-backend/internal/logger"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
)

// AdminContextKey is the echo context key holding the verified *AdminClaims
const AdminContextKey = "admin"

// AdminClaims are the claims of an admin console session token
type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth validates the HS256 bearer token issued by the auth service and
// requires the admin role. With an empty secret every request passes
// (development mode).
func AdminAuth(secret string, security *logger.SecurityLogger) echo.MiddlewareFunc {
	if security == nil {
		security = logger.NewSecurityLogger()
	}
	if secret == "" {
		security.GetLogger().Warn("JWT_SECRET not set - admin API is UNSECURED")
	}
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}

			path := c.Path()
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				security.AuthFailure(c.RealIP(), path, "missing authorization header")
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing authorization header",
					"code":  "UNAUTHORIZED",
				})
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims := &AdminClaims{}
			_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				reason := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					reason = "token expired"
				}
				security.AuthFailure(c.RealIP(), path, reason)
				return echo.NewHTTPError(401, map[string]string{
					"error": reason,
					"code":  "UNAUTHORIZED",
				})
			}

			if claims.Role != models.RoleAdmin {
				security.AuthFailure(c.RealIP(), path, "insufficient role")
				return echo.NewHTTPError(403, map[string]string{
					"error": "admin role required",
					"code":  "FORBIDDEN",
				})
			}

			c.Set(AdminContextKey, claims)
			security.GetLogger().Debug("admin authenticated",
				slog.String("subject", claims.Subject),
				slog.String("path", path))
			return next(c)
		}
	}
}
