package echoapi

import (
	"github.com/labstack/echo/v4"
)

// adminMiddleware only lets admins through. It must run after jwtMiddleware.
func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if !claims.IsAdmin() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
