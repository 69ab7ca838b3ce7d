package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler-api/internal/middleware"
	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	"github.com/noah-isme/campus-scheduler-api/pkg/response"
)

type timetableReader interface {
	FacultyTimetable(ctx context.Context, facultyID string) (*models.Timetable, error)
	RoomTimetable(ctx context.Context, roomID string) (*models.Timetable, error)
}

type timetableExporter interface {
	ExportFacultyTimetable(ctx context.Context, facultyID, format string) (*service.ExportFile, error)
	ExportRoomTimetable(ctx context.Context, roomID, format string) (*service.ExportFile, error)
}

// TimetableHandler serves weekly timetables for faculty members and rooms.
type TimetableHandler struct {
	timetables timetableReader
	exports    timetableExporter
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetables timetableReader, exports timetableExporter) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, exports: exports}
}

// Faculty godoc
// @Summary Weekly timetable of a faculty member
// @Tags Timetables
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/{id}/timetable [get]
func (h *TimetableHandler) Faculty(c *gin.Context) {
	timetable, err := h.timetables.FacultyTimetable(c.Request.Context(), c.Param("id"))
	h.respond(c, timetable, err)
}

// Room godoc
// @Summary Weekly timetable of a room
// @Tags Timetables
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/timetable [get]
func (h *TimetableHandler) Room(c *gin.Context) {
	timetable, err := h.timetables.RoomTimetable(c.Request.Context(), c.Param("id"))
	h.respond(c, timetable, err)
}

// ExportFaculty godoc
// @Summary Download the timetable of a faculty member
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Faculty ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /faculty/{id}/timetable/export [get]
func (h *TimetableHandler) ExportFaculty(c *gin.Context) {
	file, err := h.exports.ExportFacultyTimetable(c.Request.Context(), c.Param("id"), exportFormat(c))
	h.attach(c, file, err)
}

// ExportRoom godoc
// @Summary Download the timetable of a room
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Room ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /rooms/{id}/timetable/export [get]
func (h *TimetableHandler) ExportRoom(c *gin.Context) {
	file, err := h.exports.ExportRoomTimetable(c.Request.Context(), c.Param("id"), exportFormat(c))
	h.attach(c, file, err)
}

func (h *TimetableHandler) respond(c *gin.Context, timetable *models.Timetable, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, timetable.CacheHit)
	response.JSON(c, http.StatusOK, timetable, nil, middleware.ExtractMeta(c))
}

func (h *TimetableHandler) attach(c *gin.Context, file *service.ExportFile, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func exportFormat(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
}
