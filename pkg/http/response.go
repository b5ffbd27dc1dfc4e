package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	applogger "AltCredit/pkg/logger"
)

func write(c echo.Context, status int, errMsg string, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Error:   errMsg,
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope around data.
func SuccessResponse(c echo.Context, data interface{}) error {
	return write(c, http.StatusOK, "", data)
}

// BadRequestResponse writes a 400 envelope listing the rejected fields.
func BadRequestResponse(c echo.Context, fields []ValidationError) error {
	return write(c, http.StatusBadRequest, "Validation failed", fields)
}

// AppErrorResponse writes err's status and message. Errors that are not an
// AppError become a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("Something went wrong")
	}
	var data interface{}
	if appErr.Details != "" || appErr.Code != "" {
		data = appErr
	}
	return write(c, appErr.Status, appErr.Message, data)
}

// ErrorHandler renders errors that escape handlers, including Echo's own
// 404/405, with the standard envelope.
func ErrorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			err = newAppError(he.Code, "ERR_HTTP", msg)
		}

		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError {
			l.Error("unhandled http error",
				applogger.Error(err),
				applogger.String("route", c.Path()),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(statusOf(err))
			return
		}
		_ = AppErrorResponse(c, err)
	}
}

func statusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
