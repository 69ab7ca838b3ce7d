package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
)

type tokenStub map[string]models.UserRole

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := s[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &models.JWTClaims{UserID: token, Role: role}, nil
}

func buildTestRouter(sections *sectionServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	tokens := tokenStub{"admin": models.RoleAdmin, "viewer": models.RoleViewer}
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Sections:  NewSectionHandler(sections),
		Conflicts: NewConflictHandler(&conflictCheckerStub{result: &models.ConflictCheckResult{Conflicts: []models.Conflict{}}}),
	}, tokens)
	return router
}

func TestRoutesProtectScheduleWrites(t *testing.T) {
	sections := &sectionServiceMock{createResp: &models.SectionDetail{Section: models.Section{ID: "s-1"}}}
	router := buildTestRouter(sections)
	payload := `{"course_code":"CS101","section":"A","type":"Lecture","day":"M","time":"10:00 AM - 11:30 AM"}`

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "viewer", token: "viewer", status: http.StatusForbidden},
		{name: "admin", token: "admin", status: http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/sections", bytes.NewBufferString(payload))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRoutesReadsArePublic(t *testing.T) {
	router := buildTestRouter(&sectionServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sections", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/conflicts/check", bytes.NewBufferString(`{"day":"M"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
