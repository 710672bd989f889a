package helpers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
	"github.com/Fernando88323/PortalDocente-sub001/services/academia"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	ErrHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	ErrHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTokenSigningFailed   = errors.New("failed to sign token")
)

// NewAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how
// to handle our errors. signalShutdown is called whenever a core shutdown
// error is caught, so the server can stop gracefully.
func NewAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		appHTTPErrorHandler(err, c, logger, signalShutdown)
	}
}

func appHTTPErrorHandler(err error, c echo.Context, logger core.Logger, signalShutdown func()) {
	var code int
	var message interface{}

	switch err := err.(type) {
	case *echo.HTTPError:
		if err == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
			message = err.Message
			break
		}
		if err.Internal != nil {
			if herr, ok := err.Internal.(*echo.HTTPError); ok {
				err = herr
			}
		}
		code = err.Code
		message = err.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string)
		for _, vErr := range err {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		code = http.StatusBadRequest
		message = fldErrs
	case *core.ValidationError:
		if err.Fields != nil {
			fldErrs := make(map[string]string)
			for _, fErr := range err.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = err.Error()
		}
		code = http.StatusBadRequest
	default:
		switch {
		case errors.Is(err, academia.ErrAuthExpired):
			// the upstream session died; the portal view is over
			code = http.StatusUnauthorized
			message = academia.ErrAuthExpired.Error()
		case errors.Is(err, grades.ErrSaveInFlight):
			code = http.StatusConflict
			message = grades.ErrSaveInFlight.Error()
		case errors.Is(err, grades.ErrNotEditing):
			code = http.StatusConflict
			message = grades.ErrNotEditing.Error()
		case errors.Is(err, grades.ErrSessionNotFound),
			errors.Is(err, grades.ErrRecordMissing),
			errors.Is(err, group.ErrNotFound),
			errors.Is(err, user.ErrNotFound):
			code = http.StatusNotFound
			message = http.StatusText(http.StatusNotFound)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, err)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
	}

	if c.Echo().Debug {
		message = err.Error()
	} else if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead { // Issue #608
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, message)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
