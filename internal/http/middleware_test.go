package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/logging"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	seen      *string
}

func (f fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if f.seen != nil {
		*f.seen = token
	}
	return f.principal, f.err
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			cookieToken    *http.Cookie
			headerToken    string
			lookupError    error
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "non bearer header",
				headerToken:    "Basic abc",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "malformed token",
				headerToken:    "Bearer malformed",
				lookupError:    application.ErrUnauthorized,
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "revoked session",
				cookieToken:    &http.Cookie{Name: sessionCookieName, Value: "revoked-token"},
				lookupError:    application.ErrSessionRevoked,
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "expired session",
				headerToken:    "Bearer expired",
				lookupError:    application.ErrSessionExpired,
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "account awaiting approval",
				headerToken:    "Bearer pending",
				lookupError:    application.ErrAccountPending,
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_PENDING_APPROVAL",
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookieToken != nil {
					req.AddCookie(tc.cookieToken)
				}
				if tc.headerToken != "" {
					req.Header.Set("Authorization", tc.headerToken)
				}
				recorder := httptest.NewRecorder()

				handler := RequireSession(fakeSessionValidator{err: tc.lookupError}, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				require.Equal(t, tc.expectedStatus, recorder.Code)
				var body errorResponse
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
				assert.Equal(t, tc.expectedCode, body.ErrorCode)
				assert.NotEmpty(t, body.Message)
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "ref-a", Role: application.RoleReferee}
		var seen string

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-token"})
		recorder := httptest.NewRecorder()

		var captured application.Principal
		handler := RequireSession(fakeSessionValidator{principal: principal, seen: &seen}, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			require.True(t, ok)
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, principal, captured)
		assert.Equal(t, "valid-token", seen)
	})

	t.Run("converts validator failures into 500 responses", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer transient-error")
		recorder := httptest.NewRecorder()

		handler := RequireSession(fakeSessionValidator{err: errors.New("storage unavailable")}, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called")
		}))
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := RequireAdmin(logging.Discard())(next)

	tests := []struct {
		name      string
		principal *application.Principal
		status    int
	}{
		{name: "no principal", status: http.StatusForbidden},
		{name: "referee", principal: &application.Principal{UserID: "ref-a", Role: application.RoleReferee}, status: http.StatusForbidden},
		{name: "administrator", principal: &application.Principal{UserID: "adm", Role: application.RoleAdministrator}, status: http.StatusTeapot},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.principal != nil {
			req = req.WithContext(ContextWithPrincipal(req.Context(), *tc.principal))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.name)
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	t.Parallel()

	bearer := httptest.NewRequest(http.MethodGet, "/", nil)
	bearer.Header.Set("Authorization", "Bearer  abc ")
	bearer.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie"})
	assert.Equal(t, "abc", extractTokenFromRequest(bearer))

	cookie := httptest.NewRequest(http.MethodGet, "/", nil)
	cookie.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie"})
	assert.Equal(t, "cookie", extractTokenFromRequest(cookie))

	query := httptest.NewRequest(http.MethodGet, "/api/notifications/ws?token=ws-token", nil)
	assert.Empty(t, extractTokenFromRequest(query))

	query.Header.Set("Connection", "Upgrade")
	query.Header.Set("Upgrade", "websocket")
	assert.Equal(t, "ws-token", extractTokenFromRequest(query))

	assert.Empty(t, extractTokenFromRequest(nil))
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.New("json", "debug", &buf)
	require.NoError(t, err)

	var fromContext bool
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = logging.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/login", nil))

	assert.True(t, fromContext)
	var completed map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "request completed" {
			completed = entry
		}
	}
	require.NotNil(t, completed)
	assert.EqualValues(t, http.StatusAccepted, completed["status"])
	assert.EqualValues(t, 2, completed["bytes"])
	assert.Equal(t, "/api/login", completed["path"])
	assert.EqualValues(t, 1, completed["request_id"])
}
