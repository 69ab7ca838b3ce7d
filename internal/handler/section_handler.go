package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	"github.com/noah-isme/campus-scheduler-api/pkg/response"
)

type sectionService interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.SectionDetail, error)
	Create(ctx context.Context, req service.CreateSectionRequest) (*models.SectionDetail, error)
	Replace(ctx context.Context, id string, req service.CreateSectionRequest) (*models.SectionDetail, error)
	Patch(ctx context.Context, id string, req service.PatchSectionRequest) (*models.SectionDetail, error)
	Delete(ctx context.Context, id string) error
}

// SectionHandler exposes class section endpoints.
type SectionHandler struct {
	service sectionService
}

// NewSectionHandler constructs a section handler.
func NewSectionHandler(svc sectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

// List godoc
// @Summary List class sections
// @Tags Sections
// @Produce json
// @Param course_id query string false "Course"
// @Param faculty_id query string false "Faculty member"
// @Param room_id query string false "Room"
// @Param type query string false "Lecture or Laboratory"
// @Param day query string false "Day token, e.g. TH"
// @Param search query string false "Course code or section label"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	filter := models.SectionFilter{
		CourseID:  c.Query("course_id"),
		FacultyID: c.Query("faculty_id"),
		RoomID:    c.Query("room_id"),
		Type:      c.Query("type"),
		Day:       c.Query("day"),
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}

	sections, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, pagination)
}

// Get godoc
// @Summary Get class section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Create class section
// @Description Creates a section, creating the course when course_code is new. Answers 409 with meta.conflicts when the faculty member or room is already booked.
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}
	section, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Replace godoc
// @Summary Replace class section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [put]
func (h *SectionHandler) Replace(c *gin.Context) {
	var req service.CreateSectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}
	section, err := h.service.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Patch godoc
// @Summary Partially update class section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.PatchSectionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [patch]
func (h *SectionHandler) Patch(c *gin.Context) {
	var req service.PatchSectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}
	section, err := h.service.Patch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Delete godoc
// @Summary Delete class section
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
