package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civease-be/analytics"
	"civease-be/controllers"
	"civease-be/middlewares"
	"civease-be/models"
	"civease-be/services"
	"civease-be/storage"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router      *gin.Engine
	collections *storage.Collections
}

func newTestServer(t *testing.T, rateLimit RateLimit, options ...func(*Dependencies)) *testServer {
	t.Helper()
	require.NoError(t, controllers.RegisterValidators())

	store := storage.NewMemoryStore()
	collections := storage.NewCollections(store)
	_, err := storage.Seed(context.Background(), collections, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)

	logger := zerolog.Nop()
	deps := Dependencies{
		Logger:         logger,
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:5173"},
		RateLimit:      rateLimit,
		Issues:         controllers.NewIssueController(services.NewIssueService(collections), logger),
		Auth: controllers.NewAuthController(
			services.NewAuthService(collections, testSecret, time.Hour),
			controllers.CookieOptions{MaxAge: time.Hour},
			logger,
		),
		Analytics: controllers.NewAnalyticsController(services.NewAnalyticsService(collections, analytics.RandomPlaceholders{}), logger),
		Health:    controllers.NewHealthController(store, logger),
		Metrics:   middlewares.NewMetrics(prometheus.NewRegistry()),
	}
	for _, option := range options {
		option(&deps)
	}
	return &testServer{router: SetupRouter(deps), collections: collections}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email, role string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth", `{"email":"`+email+`","password":"password","role":"`+role+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))

	w = s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `civease_http_requests_total{method="GET",path="/ping",status="200"} 1`)
}

func TestIssueLifecycle(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/issues", `{
		"title": "Fallen tree",
		"description": "Blocking the bike lane",
		"category": "environment",
		"priority": "medium",
		"status": "resolved",
		"citizenId": "2",
		"location": "Oak Avenue"
	}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Issue](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.Pending, created.Status)
	assert.Equal(t, "Oak Avenue", created.Location.Address)
	assert.True(t, created.CreatedAt.Valid())
	assert.Nil(t, created.ResolvedAt)

	w = s.do(t, http.MethodGet, "/api/issues/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fallen tree", decode[models.Issue](t, w).Title)

	w = s.do(t, http.MethodGet, "/api/issues?citizenId=2&category=environment", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]models.Issue](t, w)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	w = s.do(t, http.MethodPatch, "/api/issues/"+created.ID, `{"status":"resolved","assignedTo":"1"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Issue](t, w)
	assert.Equal(t, models.Resolved, updated.Status)
	assert.Equal(t, "1", updated.AssignedTo)
	require.NotNil(t, updated.ResolvedAt)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt.Time))

	w = s.do(t, http.MethodGet, "/api/analytics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[models.AnalyticsSummary](t, w)
	assert.Equal(t, 2, summary.TotalIssues)
	assert.Equal(t, 1, summary.ResolvedIssues)
	assert.Equal(t, 1, summary.PendingIssues)
	assert.Len(t, summary.MonthlyTrends, 6)
	assert.Contains(t, summary.PlaceholderFields, analytics.FieldSatisfactionRate)
}

func TestListIssuesEmptyIsArray(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodGet, "/api/issues?status=closed", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestCreateIssueValidation(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/issues", `{"title":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w), "error")

	w = s.do(t, http.MethodPost, "/api/issues", `{"title":"`+strings.Repeat("x", 201)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIssueAcceptsPartialBody(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	start := time.Now().Add(-time.Second)

	for _, body := range []string{`{}`, `{"category":"roads","priority":"high"}`} {
		w := s.do(t, http.MethodPost, "/api/issues", body, "")
		require.Equal(t, http.StatusCreated, w.Code, body)

		issue := decode[models.Issue](t, w)
		assert.NotEmpty(t, issue.ID)
		assert.Equal(t, models.Pending, issue.Status)
		assert.True(t, issue.CreatedAt.After(start))
		assert.True(t, issue.UpdatedAt.Equal(issue.CreatedAt.Time))
		assert.Nil(t, issue.ResolvedAt)

		w = s.do(t, http.MethodGet, "/api/issues/"+issue.ID, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCreateIssueUsesCaller(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	token := s.login(t, "citizen@example.com", "citizen")

	w := s.do(t, http.MethodPost, "/api/issues", `{"title":"Stray dogs"}`, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", decode[models.Issue](t, w).CitizenID)
}

func TestUnknownIssue(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/issues/does-not-exist", ""},
		{http.MethodPatch, "/api/issues/does-not-exist", `{"title":"x"}`},
		{http.MethodGet, "/api/issues/does-not-exist/votes", ""},
	} {
		w := s.do(t, tc.method, tc.path, tc.body, "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.JSONEq(t, `{"error":"Issue not found"}`, w.Body.String())
	}
}

func TestPatchEmptyBodyOnlyTouchesUpdatedAt(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodGet, "/api/issues/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[models.Issue](t, w)

	for _, body := range []string{`{}`, ``} {
		w = s.do(t, http.MethodPatch, "/api/issues/1", body, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		after := decode[models.Issue](t, w)

		assert.True(t, after.UpdatedAt.After(before.UpdatedAt.Time))
		after.UpdatedAt = before.UpdatedAt
		assert.Equal(t, before, after)
	}
}

func TestPatchRejectsBadInput(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPatch, "/api/issues/1", `{"status":"finished"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/issues/1", `[1,2]`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/issues/1", `{"title":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/auth", `{"email":"authority@example.com","password":"password","role":"authority"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, map[string]any{
		"id":         "1",
		"email":      "authority@example.com",
		"name":       "John Doe",
		"role":       "authority",
		"department": "Public Works",
	}, resp.User)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.AuthCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	for _, body := range []string{
		`{"email":"authority@example.com","password":"password","role":"citizen"}`,
		`{"email":"authority@example.com","password":"wrong","role":"authority"}`,
		`{"email":"ghost@example.com","password":"password","role":"authority"}`,
	} {
		w := s.do(t, http.MethodPost, "/api/auth", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
	}

	for _, body := range []string{
		`{"email":"authority@example.com"}`,
		`{"email":"authority@example.com","password":"password"}`,
		`{}`,
	} {
		w := s.do(t, http.MethodPost, "/api/auth", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
	}

	w := s.do(t, http.MethodPost, "/api/auth", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"secret1","role":"authority","department":"Parks"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[map[string]any](t, w)
	assert.NotContains(t, registered, "password")
	assert.Equal(t, "Parks", registered["department"])

	w = s.do(t, http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"secret1","role":"citizen"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", `{"name":"Eve","email":"eve@example.com","password":"secret1","role":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1","role":"authority"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = s.do(t, http.MethodGet, "/api/auth/me", "", resp.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode[map[string]any](t, w)["email"])

	w = s.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewares.AuthCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestGetUsers(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodGet, "/api/users", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, decode[[]models.PublicUser](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/users?role=authority", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	authorities := decode[[]models.PublicUser](t, w)
	require.Len(t, authorities, 1)
	assert.Equal(t, "John Doe", authorities[0].Name)
}

func TestVoting(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	w := s.do(t, http.MethodPost, "/api/issues/1/vote", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login(t, "citizen@example.com", "citizen")

	w = s.do(t, http.MethodPost, "/api/issues/1/vote", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	vote := decode[map[string]any](t, w)
	assert.Equal(t, true, vote["voted"])
	assert.EqualValues(t, 1, vote["votes"])

	w = s.do(t, http.MethodGet, "/api/issues/1/votes", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":1,"userHasVoted":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/issues/1/votes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":1,"userHasVoted":false}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/issues/1/vote", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	vote = decode[map[string]any](t, w)
	assert.Equal(t, false, vote["voted"])
	assert.EqualValues(t, 0, vote["votes"])

	w = s.do(t, http.MethodPost, "/api/issues/missing/vote", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIssueRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, RateLimit{Client: client, Prefix: "issue_limit", Limit: 2})
	token := s.login(t, "citizen@example.com", "citizen")

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/issues", `{"title":"Flood"}`, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/issues", `{"title":"Flood"}`, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// anonymous callers are counted separately
	w = s.do(t, http.MethodPost, "/api/issues", `{"title":"Flood"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.True(t, mr.Exists("issue_limit:2"))
}

func TestStorageFailureIs500(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	require.NoError(t, s.collections.Store().Set(context.Background(), storage.IssuesKey, []byte(`{"corrupt":true}`)))

	w := s.do(t, http.MethodGet, "/api/issues", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/analytics", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUndecodableRecordsAreSkipped(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	require.NoError(t, s.collections.Store().Set(context.Background(), storage.IssuesKey, []byte(`[
		{"id":"ok","title":"Pothole","category":"roads","priority":"high","status":"pending"},
		{"id":"bad","title":"Broken","status":"pending","location":42}
	]`)))

	w := s.do(t, http.MethodGet, "/api/analytics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[models.AnalyticsSummary](t, w)
	assert.Equal(t, 1, summary.TotalIssues)

	w = s.do(t, http.MethodGet, "/api/issues", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Issue](t, w), 1)

	w = s.do(t, http.MethodPatch, "/api/issues/ok", `{"status":"in_progress"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code, "writes never drop the undecodable record")
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, RateLimit{Client: client, Prefix: "issue_limit", Limit: 1})

	post := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader(`{"title":"Flood"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.2"))
	assert.True(t, mr.Exists("issue_limit:ip:192.0.2.1"))
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, RateLimit{Client: client, Prefix: "issue_limit", Limit: 1}, func(d *Dependencies) {
		d.TrustedProxies = []string{"192.0.2.1"}
	})

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader(`{"title":"Flood"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code, ip)
		assert.True(t, mr.Exists("issue_limit:ip:"+ip))
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	req := httptest.NewRequest(http.MethodOptions, "/api/issues", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSConfig(t *testing.T) {
	cfg := corsConfig([]string{"*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.False(t, cfg.AllowCredentials)

	cfg = corsConfig(nil)
	assert.True(t, cfg.AllowAllOrigins)

	cfg = corsConfig([]string{"https://civease.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://civease.example"}, cfg.AllowOrigins)
}
