package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errNoProfile      = echo.NewHTTPError(http.StatusForbidden, "user profile not found")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
	errMissingFile    = core.NewFieldError("file", errors.New("this field is required"))
	errNotInCtxObject = errors.New("object not found in echo.Context")
)

// notFoundErrors are answered with a 404 and their message.
var notFoundErrors = []error{
	mission.ErrNotFound,
	mission.ErrCustomizationNotFound,
	classroom.ErrNotFound,
	user.ErrNotFound,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body := httpResponse(err, translator)
		if code == http.StatusInternalServerError {
			reportServerError(ctx, logger, err)
			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				body = err.Error()
			}
		}
		if msg, ok := body.(string); ok {
			body = echo.Map{"error": msg}
		}

		if ctx.Response().Committed {
			return
		}
		var sendErr error
		if ctx.Request().Method == http.MethodHead { // Issue #608
			sendErr = ctx.NoContent(code)
		} else {
			sendErr = ctx.JSON(code, body)
		}
		if sendErr != nil {
			ctx.Echo().Logger.Error(sendErr)
		}
	}
}

// httpResponse maps err to a status code and a body: a message, or a field map for validation errors.
func httpResponse(err error, translator ut.Translator) (int, interface{}) {
	cause := errors.Cause(err)
	switch cause {
	case core.ErrInvalidToken:
		return errUnauthorized.Code, errUnauthorized.Message
	case middleware.ErrJWTMissing:
		// echo answers 400 by default
		return http.StatusUnauthorized, middleware.ErrJWTMissing.Message
	}
	for _, nfErr := range notFoundErrors {
		if cause == nfErr {
			return http.StatusNotFound, nfErr.Error()
		}
	}

	switch e := cause.(type) {
	case *echo.HTTPError:
		if inner, ok := e.Internal.(*echo.HTTPError); ok {
			e = inner
		}
		return e.Code, e.Message
	case validator.ValidationErrors:
		flds := make(map[string]string, len(e))
		for _, fe := range e {
			flds[fe.Field()] = fe.Translate(translator)
		}
		return http.StatusBadRequest, flds
	case *core.ValidationError:
		if flds := e.FieldMap(); flds != nil {
			return http.StatusBadRequest, flds
		}
		return http.StatusBadRequest, e.Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// reportServerError logs err along with the request's profile, when known.
func reportServerError(ctx echo.Context, logger core.Logger, err error) {
	msg := http.StatusText(http.StatusInternalServerError)
	args := []interface{}{errors.Wrap(err, msg)}
	if prof, pErr := getContextProfile(ctx); pErr == nil {
		args = append(args, prof)
	}
	logger.Error(msg, args...)
}
