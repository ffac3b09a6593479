package echoapi

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
)

const adminTokenHeader = "X-Admin-Token"

// adminMiddleware guards the admin endpoints with the shared static token.
func adminMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			given := ctx.Request().Header.Get(adminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) == 1 {
				return next(ctx)
			}
			return errAdminTokenInvalid
		}
	}
}
