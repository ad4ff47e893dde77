package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware only lets profiles with one of roles through.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prof, err := getContextProfile(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}
			if prof.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
