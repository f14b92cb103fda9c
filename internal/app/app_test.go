package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finx-auth/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fakeDirectus(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"access_token":"A","refresh_token":"R","expires":900}}`))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"1","email":"user@x.com","first_name":"Ada"}}`))
	})
	mux.HandleFunc("/items/journals", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"auth":"` + r.Header.Get("Authorization") + `"}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	srv := fakeDirectus(t)

	cfg := config.Config{
		DirectusURL: srv.URL,
		TokenSkew:   5 * time.Minute,
		HTTPTimeout: 5 * time.Second,
		ExpiresUnit: time.Second,
		StoreDriver: config.StoreMemory,
	}

	registry := prometheus.NewRegistry()
	services, err := NewServices(context.Background(), cfg, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })

	services.State.Start(context.Background())
	<-services.State.Ready()

	return newRouter(services, registry)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateway_SessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_authenticated":false,"loading":false,"user":null}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/auth/login", `{"email":"user@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/auth/login", `{"email":"user@x.com","password":"correct"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"1"`)

	w = serve(r, http.MethodGet, "/api/proxy/items/journals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"auth":"Bearer A"}]}`, w.Body.String())

	w = serve(r, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "finx_gateway_requests_total")
	assert.Contains(t, w.Body.String(), `finx_session_logins_total{method="email",result="success"} 1`)
}

func TestSetupInfra_UnsupportedDriver(t *testing.T) {
	_, err := setupInfra(context.Background(), config.Config{StoreDriver: "sqlite"})
	assert.Error(t, err)
}

func TestSetupInfra_File(t *testing.T) {
	infra, err := setupInfra(context.Background(), config.Config{
		StoreDriver: config.StoreFile,
		StorePath:   t.TempDir() + "/session.json",
	})
	require.NoError(t, err)
	require.NotNil(t, infra.Store)
	assert.NoError(t, infra.Close())
}
