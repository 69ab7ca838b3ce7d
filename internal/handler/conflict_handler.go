package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	"github.com/noah-isme/campus-scheduler-api/pkg/response"
)

type conflictChecker interface {
	Check(ctx context.Context, req service.ConflictCheckRequest) (*models.ConflictCheckResult, error)
}

// ConflictHandler exposes the standalone conflict check.
type ConflictHandler struct {
	service conflictChecker
}

// NewConflictHandler constructs a conflict handler.
func NewConflictHandler(svc conflictChecker) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// Check godoc
// @Summary Check a proposed schedule for conflicts
// @Description Reports existing sections whose faculty member or room overlaps the proposed days and time. The result is advisory; writes re-check under lock.
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body service.ConflictCheckRequest true "Proposed schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /conflicts/check [post]
func (h *ConflictHandler) Check(c *gin.Context) {
	var req service.ConflictCheckRequest
	if !bindJSON(c, &req, "invalid conflict check payload") {
		return
	}
	result, err := h.service.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
