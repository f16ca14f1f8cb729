package routes

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sidhant-sriv/spots-api/config"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/dbtest"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	logging.Init(logging.Config{Level: "disabled"})
}

// Seeded users, in fixture order.
const (
	demoID  uint = 1
	fake1ID uint = 2
	fake2ID uint = 3
)

// testNow falls before every seeded booking.
var testNow = time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	t        *testing.T
	DB       *gorm.DB
	sessions *middleware.Sessions
	router   *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	DB := dbtest.New(t)
	require.NoError(t, db.Seed(DB))
	setNow(t, testNow)

	sessions := middleware.NewSessions(config.AuthConfig{
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		CookieName: "token",
	})
	return &testAPI{t: t, DB: DB, sessions: sessions, router: NewRouter(DB, sessions)}
}

func setNow(t *testing.T, at time.Time) {
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

// do sends body as JSON (strings are sent verbatim), logged in as userID
// unless it is zero.
func (a *testAPI) do(method, path string, body any, userID uint) *httptest.ResponseRecorder {
	a.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := a.sessions.IssueToken(userID)
		require.NoError(a.t, err)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type userBody struct {
	User *struct {
		ID        uint   `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user"`
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/health", nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/api/spots", nil, 0)

	w := api.do(http.MethodGet, "/metrics", nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `spots_api_http_requests_total{method="GET",route="/api/spots",status="200"}`)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/nope", nil, 0)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignup(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/users", map[string]string{
		"email":     "new@user.io",
		"username":  "newbie",
		"password":  "secret123",
		"firstName": "New",
		"lastName":  "Person",
	}, 0)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[userBody](t, w)
	require.NotNil(t, body.User)
	assert.Equal(t, "newbie", body.User.Username)
	assert.Equal(t, "new@user.io", body.User.Email)
	assert.NotContains(t, w.Body.String(), "assword")

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	id, err := api.sessions.ParseToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, body.User.ID, id)
}

func TestSignupDuplicate(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name  string
		email string
		user  string
		field string
	}{
		{"email taken", "demo@user.io", "someone", "email"},
		{"username taken", "other@user.io", "Demo-lition", "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/users", map[string]string{
				"email":     tt.email,
				"username":  tt.user,
				"password":  "secret123",
				"firstName": "Dup",
				"lastName":  "User",
			}, 0)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decode[errorBody](t, w)
			assert.Equal(t, "User already exists", body.Message)
			assert.Equal(t, "User with that "+tt.field+" already exists", body.Errors[tt.field])
		})
	}
}

func TestSignupValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/users", nil, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "Bad Request", body.Message)
	assert.Equal(t, map[string]string{
		"email":     "Invalid email",
		"username":  "Username is required",
		"password":  "Password must be 6 characters or more.",
		"firstName": "First Name is required",
		"lastName":  "Last Name is required",
	}, body.Errors)

	w = api.do(http.MethodPost, "/api/users", map[string]string{
		"email":     "x@user.io",
		"username":  "x@user.io",
		"password":  "secret123",
		"firstName": "Ex",
		"lastName":  "Ample",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username cannot be an email.", decode[errorBody](t, w).Errors["username"])

	w = api.do(http.MethodPost, "/api/users", `{"email":`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	for _, credential := range []string{"demo@user.io", "Demo-lition"} {
		w := api.do(http.MethodPost, "/api/session", map[string]string{
			"credential": credential,
			"password":   "password",
		}, 0)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[userBody](t, w)
		require.NotNil(t, body.User)
		assert.Equal(t, demoID, body.User.ID)
		assert.NotNil(t, sessionCookie(w))
	}
}

func TestLoginFailures(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantBody   errorBody
	}{
		{
			name:       "wrong password",
			body:       map[string]string{"credential": "Demo-lition", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   errorBody{Message: "Invalid credentials"},
		},
		{
			name:       "unknown user",
			body:       map[string]string{"credential": "ghost", "password": "password"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   errorBody{Message: "Invalid credentials"},
		},
		{
			name:       "missing fields",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantBody: errorBody{
				Message: "Bad Request",
				Errors: map[string]string{
					"credential": "Email or username is required",
					"password":   "Password is required",
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/session", tt.body, 0)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decode[errorBody](t, w))
			assert.Nil(t, sessionCookie(w))
		})
	}
}

func TestGetSession(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/session", nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/session", nil, fake1ID)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[userBody](t, w)
	require.NotNil(t, body.User)
	assert.Equal(t, "FakeUser1", body.User.Username)
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodDelete, "/api/session", nil, demoID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"success"}`, w.Body.String())

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}
