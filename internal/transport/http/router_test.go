package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallguide-server-go/internal/platform/config"
	"mallguide-server-go/internal/platform/errors"
)

type tokenGate string

func (g tokenGate) Allow(_ context.Context, token string) bool {
	return token == string(g)
}

func TestStatusFor(t *testing.T) {
	cases := map[errors.Kind]int{
		errors.KindValidation: http.StatusBadRequest,
		errors.KindGeneration: http.StatusBadRequest,
		errors.KindConflict:   http.StatusConflict,
		errors.KindNotFound:   http.StatusNotFound,
		errors.KindAuth:       http.StatusUnauthorized,
		errors.KindStorage:    http.StatusInternalServerError,
		errors.KindDelivery:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(errors.New(kind, "op", "msg")), kind)
	}
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}

func buildTestRouter(t *testing.T) *Router {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Web.StaticDir = ""
	r, err := Build(Options{Config: cfg, Gate: tokenGate("good")})
	require.NoError(t, err)

	r.Public.GET("/open", func(c *gin.Context) { RespondMessage(c, http.StatusOK, "open") })
	r.Secured.POST("/guarded", func(c *gin.Context) { RespondMessage(c, http.StatusOK, "guarded") })
	r.Public.GET("/boom", func(c *gin.Context) {
		RespondError(c, nil, errors.New(errors.KindStorage, "op", "disk full"))
	})
	r.Public.GET("/bad", func(c *gin.Context) {
		RespondError(c, nil, errors.New(errors.KindValidation, "op", "missing required fields: name"))
	})
	return r
}

func serve(r *Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	r := buildTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorBodies(t *testing.T) {
	r := buildTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"disk full"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"missing required fields: name"}`, w.Body.String())
}

func TestNoRoute(t *testing.T) {
	r := buildTestRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/guarded", nil)
	req.Header.Set("Origin", "http://console.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildRequiresConfig(t *testing.T) {
	_, err := Build(Options{})
	assert.Error(t, err)
}
