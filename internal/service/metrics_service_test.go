package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
)

func TestMetricsServiceConflictCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordConflictCheck([]models.Conflict{{Type: models.ConflictKindFaculty}, {Type: models.ConflictKindRoom}, {Type: models.ConflictKindRoom}})
	m.RecordConflictCheck(nil)
	m.RecordMalformedSchedule()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "conflict_checks_total 2")
	assert.Contains(t, body, `schedule_conflicts_total{kind="faculty"} 1`)
	assert.Contains(t, body, `schedule_conflicts_total{kind="room"} 2`)
	assert.Contains(t, body, "malformed_schedules_total 1")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.ConflictChecks)
	assert.Equal(t, uint64(3), snap.ConflictsDetected)
	assert.Equal(t, uint64(1), snap.MalformedSchedules)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/sections", http.StatusOK, 15*time.Millisecond)
	m.ObserveDBQuery("find_assignments", 2*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, `db_query_duration_seconds_count{query="find_assignments"} 1`))

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 15.0, snap.AverageRequestDurationMs, 0.01)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordConflictCheck(nil)
	m.RecordMalformedSchedule()
	m.ObserveDBQuery("x", time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
