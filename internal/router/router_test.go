package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/care-records/internal/config"
	"github.com/iliyamo/care-records/internal/handler"
	"github.com/iliyamo/care-records/internal/metrics"
	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/utils"
)

const testSecret = "router-secret"

func testDeps() Deps {
	cfg := config.Config{JWTSecret: testSecret, CORSAllowOrigins: []string{"*"}}
	return Deps{
		Config:       cfg,
		Metrics:      metrics.New(),
		Auth:         handler.NewAuthHandler(cfg, nil, nil),
		PatrolRounds: handler.NewPatrolRoundHandler(nil, nil, nil),
		IntakeOutput: handler.NewIntakeOutputHandler(nil, nil, nil),
		Slots:        handler.NewSlotHandler(),
	}
}

func bearer(t *testing.T, id uint64, username string) string {
	t.Helper()
	at, err := utils.NewAccessToken(testSecret, id, username, "staff", 5)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// stubDirectory answers only the lookups these tests make.
type stubDirectory struct {
	handler.DirectoryStore
	stations   int
	admissions int
}

func (s *stubDirectory) Stations(context.Context) ([]model.Station, error) {
	s.stations++
	return []model.Station{{ID: "S1", Name: "東側"}}, nil
}

func (s *stubDirectory) AdmissionRecordsFor(context.Context, int64) ([]model.PatientAdmissionRecord, error) {
	s.admissions++
	return nil, nil
}

func cachedDeps(t *testing.T, dir handler.DirectoryStore) Deps {
	d := testDeps()
	d.Redis = newRedis(t)
	d.Cache = config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "test",
	}
	d.Directory = handler.NewDirectoryHandler(dir)
	return d
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := New(testDeps())

	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"status": "healthy", "app": "護理記錄"}, body)
	}
}

func TestCORS(t *testing.T) {
	e := New(testDeps())

	rec := serve(e, http.MethodGet, "/api/health", map[string]string{echo.HeaderOrigin: "http://ward.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://ward.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	rec = serve(e, http.MethodOptions, "/api/health", map[string]string{
		echo.HeaderOrigin:                      "http://ward.example",
		echo.HeaderAccessControlRequestMethod:  http.MethodGet,
		echo.HeaderAccessControlRequestHeaders: "X-Ward-Id",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://ward.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "X-Ward-Id", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodGet)
}

func TestUnknownPath(t *testing.T) {
	e := New(testDeps())

	for _, path := range []string{"/unknown", "/api/unknown"} {
		rec := serve(e, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String(), path)
	}
}

func TestProtectedRoutes(t *testing.T) {
	e := New(testDeps())

	for _, path := range []string{"/api/patrol-rounds", "/api/intake-output-records", "/api/auth/me", "/api/care-slots"} {
		rec := serve(e, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	at, err := utils.NewAccessToken(testSecret, 7, "nurse01", "staff", 5)
	require.NoError(t, err)
	rec := serve(e, http.MethodGet, "/api/auth/me", map[string]string{echo.HeaderAuthorization: "Bearer " + at.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"username":"nurse01","role":"staff"}`, rec.Body.String())
}

func limitDeps(strategy string) Deps {
	d := testDeps()
	d.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Minute,
		KeyStrategy:    strategy,
		Prefix:         "test",
	}
	return d
}

func TestRateLimitAfterAuth(t *testing.T) {
	e := New(limitDeps("ip"))
	auth := map[string]string{echo.HeaderAuthorization: bearer(t, 7, "nurse01")}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/patrol-rounds", nil).Code)
	}
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/auth/me", auth).Code)
	rec := serve(e, http.MethodGet, "/api/auth/me", auth)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/health", nil).Code)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	for name, rdb := range map[string]*redis.Client{"local": nil, "redis": newRedis(t)} {
		t.Run(name, func(t *testing.T) {
			d := limitDeps("user")
			d.Redis = rdb
			e := New(d)
			nurse01 := map[string]string{echo.HeaderAuthorization: bearer(t, 7, "nurse01")}
			nurse02 := map[string]string{echo.HeaderAuthorization: bearer(t, 8, "nurse02")}

			assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/auth/me", nurse01).Code)
			assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/api/auth/me", nurse01).Code)
			assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/auth/me", nurse02).Code)
		})
	}
}

func TestCachedResponseHeaders(t *testing.T) {
	dir := &stubDirectory{}
	e := New(cachedDeps(t, dir))
	auth := bearer(t, 7, "nurse01")

	first := serve(e, http.MethodGet, "/api/stations", map[string]string{
		echo.HeaderAuthorization: auth,
		echo.HeaderOrigin:        "http://ward-a.example",
	})
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/api/stations", map[string]string{
		echo.HeaderAuthorization: auth,
		echo.HeaderOrigin:        "http://ward-b.example",
	})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, []string{"http://ward-b.example"}, second.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.Len(t, second.Header().Values(echo.HeaderAccessControlAllowCredentials), 1)
	assert.Len(t, second.Header().Values(echo.HeaderXFrameOptions), 1)
	assert.Len(t, second.Header().Values(echo.HeaderContentType), 1)
	assert.Equal(t, first.Body.String(), second.Body.String())

	third := serve(e, http.MethodGet, "/api/stations", map[string]string{echo.HeaderAuthorization: auth})
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, "HIT", third.Header().Get("X-Cache"))
	assert.Empty(t, third.Header().Get(echo.HeaderAccessControlAllowOrigin))

	assert.Equal(t, 1, dir.stations)
}

func TestHospitalStatusNotCached(t *testing.T) {
	dir := &stubDirectory{}
	e := New(cachedDeps(t, dir))
	auth := map[string]string{echo.HeaderAuthorization: bearer(t, 7, "nurse01")}

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/api/patients/3/hospital-status?date=2024-05-01&time=08:00", auth)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"in_hospital":false}`, rec.Body.String())
	}
	assert.Equal(t, 2, dir.admissions)
}

func TestMetricsEndpoint(t *testing.T) {
	e := New(testDeps())
	serve(e, http.MethodGet, "/api/health", nil)

	rec := serve(e, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `care_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
