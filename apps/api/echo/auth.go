package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	contextProfileKey = "profile"
	bearerScheme      = "bearer "
)

// authMiddleware authenticates the bearer token with the BaaS and loads the caller's profile.
func authMiddleware(verifier core.AuthVerifier, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := bearerToken(ctx)
			if !ok {
				return middleware.ErrJWTMissing
			}

			ident, err := verifier.Verify(ctx.Request().Context(), token)
			if err != nil {
				if errors.Cause(err) == core.ErrInvalidToken {
					return errUnauthorized
				}
				return errors.Wrap(err, "verifying token")
			}

			prof, err := svc.GetByID(ctx.Request().Context(), ident.ID)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errNoProfile
				}
				return errors.Wrap(err, "finding user profile")
			}
			ctx.Set(contextProfileKey, prof)
			return next(ctx)
		}
	}
}

func bearerToken(ctx echo.Context) (string, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) <= len(bearerScheme) || !strings.EqualFold(auth[:len(bearerScheme)], bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(bearerScheme):])
	return token, token != ""
}

func getContextProfile(ctx echo.Context) (user.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(user.Profile); ok {
		return prof, nil
	}
	return user.Profile{}, errUnauthorized
}
