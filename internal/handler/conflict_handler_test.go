package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type conflictCheckerStub struct {
	result *models.ConflictCheckResult
	err    error
	last   service.ConflictCheckRequest
}

func (s *conflictCheckerStub) Check(ctx context.Context, req service.ConflictCheckRequest) (*models.ConflictCheckResult, error) {
	s.last = req
	return s.result, s.err
}

func TestConflictHandlerCheck(t *testing.T) {
	stub := &conflictCheckerStub{result: &models.ConflictCheckResult{
		HasConflicts: true,
		Conflicts:    []models.Conflict{{Type: models.ConflictKindRoom, Course: "CS101", Section: "A", ConflictDay: "TH"}},
	}}
	handler := NewConflictHandler(stub)

	c, w := newEditorContext(http.MethodPost, "/conflicts/check", `{"day":"TH","time":"10:00 AM - 11:00 AM","room_id":"r-1"}`)
	handler.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r-1", stub.last.RoomID)

	var body struct {
		Data models.ConflictCheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.HasConflicts)
	require.Len(t, body.Data.Conflicts, 1)
	assert.Equal(t, models.ConflictKindRoom, body.Data.Conflicts[0].Type)
}

func TestConflictHandlerCheckValidationError(t *testing.T) {
	stub := &conflictCheckerStub{err: appErrors.Clone(appErrors.ErrValidation, "invalid conflict check payload")}
	handler := NewConflictHandler(stub)

	c, w := newEditorContext(http.MethodPost, "/conflicts/check", `{"day":"XYZ"}`)
	handler.Check(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
