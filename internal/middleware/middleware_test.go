package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	validator := stubValidator{
		"admin":  {UserID: "u1", Role: models.RoleAdmin},
		"viewer": {UserID: "u2", Role: models.RoleViewer},
	}
	chain := append([]gin.HandlerFunc{JWT(validator)}, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/sections/:id", chain...)
	return r
}

func serve(r http.Handler, token, path string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestJWT(t *testing.T) {
	r := newProtectedRouter()
	assert.Equal(t, http.StatusUnauthorized, serve(r, "", "/sections/1"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token admin", "/sections/1"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer nope", "/sections/1"))
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer admin", "/sections/1"))
}

func TestRBACEditors(t *testing.T) {
	r := newProtectedRouter(Editors())
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer admin", "/sections/1"))
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer viewer", "/sections/1"))
}

func TestRBACSelf(t *testing.T) {
	r := newProtectedRouter(RBAC(string(models.RoleSuperAdmin), RoleSelf))
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer viewer", "/sections/u2"))
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer viewer", "/sections/u1"))
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, method+" "+path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/rooms/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, []string{"GET /rooms/:id", "GET unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/timetable", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timetable", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
