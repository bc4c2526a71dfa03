package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/repository"
	"github.com/iliyamo/game-catalog/internal/service"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   []string  `json:"details"`
	Path      string    `json:"path"`
}

// duplicateMessages are the client-facing texts for unique-key violations.
var duplicateMessages = []struct {
	err error
	msg string
}{
	{repository.ErrDuplicateUsername, "Username is already taken"},
	{repository.ErrDuplicateEmail, "Email is already in use"},
	{repository.ErrDuplicateTitle, "A game with this title already exists"},
	{repository.ErrDuplicateTagName, "A tag with this name already exists"},
	{repository.ErrAlreadyOwned, "Game is already in the library"},
}

// classify maps err to a status, a message and optional details. Only
// messages written for clients leave this function; anything unknown
// becomes a bare 500.
func classify(err error) (int, string, []string) {
	var (
		denied *authz.AccessDeniedError
		ve     *service.ValidationError
		he     *echo.HTTPError
	)
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized, "Full authentication is required to access this resource", nil
	case errors.As(err, &denied):
		return http.StatusForbidden, denied.Reason, []string{"policy: " + string(denied.Policy)}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid username or password", nil
	case errors.As(err, &ve):
		details := make([]string, len(ve.Fields))
		for i, f := range ve.Fields {
			details[i] = f.String()
		}
		return http.StatusBadRequest, "Validation failed", details
	case errors.Is(err, repository.ErrDuplicateKey):
		for _, d := range duplicateMessages {
			if errors.Is(err, d.err) {
				return http.StatusBadRequest, d.msg, nil
			}
		}
		return http.StatusBadRequest, "Resource already exists", nil
	case errors.Is(err, repository.ErrNotFound):
		msg := err.Error()
		return http.StatusNotFound, strings.ToUpper(msg[:1]) + msg[1:], nil
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Resource is still referenced and cannot be deleted", nil
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			msg = s
		}
		return he.Code, msg, nil
	}
	return http.StatusInternalServerError, "An unexpected error occurred", nil
}

// ErrorHandler is the Echo HTTPErrorHandler. It writes the ErrorBody for
// every error returned by a handler or middleware.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg, details := classify(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
			}).Error("request failed")
		}
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer`)
		}
		if details == nil {
			details = []string{}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorBody{
				Timestamp: time.Now().UTC(),
				Status:    status,
				Error:     http.StatusText(status),
				Message:   msg,
				Details:   details,
				Path:      c.Request().URL.Path,
			})
		}
		if werr != nil {
			log.WithError(werr).Warn("writing error response failed")
		}
	}
}

// badRequest is returned for bodies or parameters that cannot be decoded.
func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
