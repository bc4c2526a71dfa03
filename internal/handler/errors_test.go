package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/logging"
	"github.com/iliyamo/game-catalog/internal/repository"
	"github.com/iliyamo/game-catalog/internal/service"
)

func serveError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/things/7", nil)
	rec := httptest.NewRecorder()
	ErrorHandler(logging.Discard())(err, e.NewContext(req, rec))

	var body ErrorBody
	if method != http.MethodHead {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestErrorHandler_Categories(t *testing.T) {
	sqlErr := &mysql.MySQLError{Number: 1406, Message: "Data too long for column 'country' at row 1"}

	cases := []struct {
		name    string
		err     error
		status  int
		message string
		details []string
	}{
		{"unauthenticated", authz.ErrUnauthenticated, 401, "Full authentication is required to access this resource", []string{}},
		{"denied", authz.Deny(authz.PolicySelfOrAdmin, "not your account"), 403, "not your account", []string{"policy: self-or-admin"}},
		{"bad credentials", service.ErrInvalidCredentials, 400, "Invalid username or password", []string{}},
		{"validation", &service.ValidationError{Fields: []service.FieldError{{Field: "email", Message: "must not be blank"}}}, 400, "Validation failed", []string{"email: must not be blank"}},
		{"duplicate username", fmt.Errorf("create: %w", repository.ErrDuplicateUsername), 400, "Username is already taken", []string{}},
		{"duplicate email", repository.ErrDuplicateEmail, 400, "Email is already in use", []string{}},
		{"duplicate other", repository.ErrDuplicateKey, 400, "Resource already exists", []string{}},
		{"not found", service.ErrUserNotFound, 404, "User not found", []string{}},
		{"conflict", repository.ErrConflict, 409, "Resource is still referenced and cannot be deleted", []string{}},
		{"echo 4xx", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), 429, "rate limit exceeded", []string{}},
		{"echo 5xx", echo.NewHTTPError(http.StatusBadGateway, "upstream said: secret detail"), 502, "Bad Gateway", []string{}},
		{"driver error", fmt.Errorf("upsert profile: %w", sqlErr), 500, "An unexpected error occurred", []string{}},
		{"plain error", errors.New("dial tcp 10.0.0.5:3306: connection refused"), 500, "An unexpected error occurred", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := serveError(t, http.MethodGet, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, body.Status)
			assert.Equal(t, http.StatusText(tc.status), body.Error)
			assert.Equal(t, tc.message, body.Message)
			assert.Equal(t, tc.details, body.Details)
			assert.Equal(t, "/api/things/7", body.Path)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestErrorHandler_InternalErrorsDoNotLeak(t *testing.T) {
	sqlErr := &mysql.MySQLError{Number: 1406, Message: "Data too long for column 'country' at row 1"}
	rec, _ := serveError(t, http.MethodPut, fmt.Errorf("upsert profile: %w", sqlErr))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	raw := rec.Body.String()
	assert.NotContains(t, raw, "Data too long")
	assert.NotContains(t, raw, "country")
	assert.NotContains(t, raw, "1406")
	assert.NotContains(t, raw, "upsert")
}

func TestErrorHandler_UnauthorizedSetsChallenge(t *testing.T) {
	rec, _ := serveError(t, http.MethodGet, authz.ErrUnauthenticated)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec, _ = serveError(t, http.MethodGet, authz.Deny(authz.PolicyAdminOnly, "admins only"))
	assert.Empty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := serveError(t, http.MethodHead, service.ErrGameNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	ErrorHandler(logging.Discard())(errors.New("late"), c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
