package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/api"
	"github.com/jeromedesantos12/app-circle/internal/app"
	iauth "github.com/jeromedesantos12/app-circle/internal/auth"
	"github.com/jeromedesantos12/app-circle/internal/cache"
	sharedtestutil "github.com/jeromedesantos12/app-circle/internal/database/testutil"
	"github.com/jeromedesantos12/app-circle/internal/middleware"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and a miniredis cache for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Store  cache.Store
	Hub    *realtime.Hub
	Router *gin.Engine
	JWT    *iauth.JWTService
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t)

	mr := miniredis.RunT(t)
	store := cache.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	storage, err := uploads.NewStorage(t.TempDir())
	require.NoError(t, err)

	hub := realtime.NewHub()

	cfg := &app.Config{
		Server: app.ServerConfig{
			CORSOrigin: "http://localhost:5173",
			RateLimit:  app.RateLimit{Requests: 1000, Window: time.Minute},
		},
		Auth: app.AuthConfig{
			Cookie: app.CookieSettings{},
		},
	}

	router, err := api.NewRouter(db, store, hub, jwtSvc, storage, cfg)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Store:  store,
		Hub:    hub,
		Router: router,
		JWT:    jwtSvc,
	}
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PhotoProfile string `json:"photo_profile"`
	Bio          string `json:"bio"`
}

// APIResponse represents the canonical envelope returned by handlers.
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *response.Meta  `json:"meta"`
	Code    string          `json:"code"`
}

// Register creates an account through the public endpoint.
func (e *Env) Register(fullName, email, password string) UserPayload {
	e.T.Helper()

	payload := map[string]string{
		"full_name": fullName,
		"email":     email,
		"password":  password,
	}
	w := e.Request(http.MethodPost, "/api/v1/register", payload, nil)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var user UserPayload
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &user)
	require.NotEmpty(e.T, user.ID)
	return user
}

// Login authenticates and returns the issued session cookie.
func (e *Env) Login(identity, password string) (*http.Cookie, UserPayload) {
	e.T.Helper()

	payload := map[string]string{
		"identifier": identity,
		"password":   password,
	}
	w := e.Request(http.MethodPost, "/api/v1/login", payload, nil)
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	session := SessionCookie(e.T, w)
	require.NotNil(e.T, session)

	var data struct {
		User UserPayload `json:"user"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &data)
	return session, data.User
}

// SessionCookie extracts the session cookie from a response, if set.
func SessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a JSON request against the test router. A non-nil session
// cookie authenticates the call.
func (e *Env) Request(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, session)
}

// FormRequest executes a form-encoded request, used by the multipart-tolerant
// create and update endpoints.
func (e *Env) FormRequest(method, path string, form url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(method, path, strings.NewReader(form.Encode()))
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(req, session)
}

func (e *Env) serve(req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
