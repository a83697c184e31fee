package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/threedrepo/repo-backend/config"
	"github.com/threedrepo/repo-backend/internal/metrics"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	SetGinMode("test")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	conns := mongodb.NewConnectionManager(config.MongoConfig{Host: "localhost", Port: 27017}, nil,
		mongodb.WithDialer(func(context.Context, string) (*mongo.Client, error) {
			return nil, errors.New("no database in tests")
		}))

	return BuildRouter(RouterDeps{
		ServiceName:    "repo-backend",
		Version:        "test",
		AllowedOrigins: []string{"*"},
		Auth:           config.AuthConfig{SessionTTL: time.Hour, LoginRatePerMin: 60, LoginBurst: 5},
		Log:            zap.NewNop(),
		Metrics:        metrics.New(),
		Conns:          conns,
		Redis:          client,
	})
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBuildRouter(t *testing.T) {
	r := testRouter(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"up"`)

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "repo_http_requests_total")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/acme/projects"},
		{http.MethodPut, "/acme/projects/A"},
		{http.MethodGet, "/acme/permission-templates"},
		{http.MethodDelete, "/acme/m1"},
		{http.MethodGet, "/acme/m1/revisions/latest"},
		{http.MethodGet, "/acme/m1/files/tower.ifc"},
		{http.MethodPost, "/logout"},
	} {
		w = serve(r, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestBuildRouter_LoginAgainstUnreachableDatabase(t *testing.T) {
	r := testRouter(t)

	w := serve(r, http.MethodPost, "/login", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DB_ERROR")
}

func TestCORS(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/acme/projects", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
