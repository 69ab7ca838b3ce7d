package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler-api/internal/middleware"
	"github.com/noah-isme/campus-scheduler-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Courses     *CourseHandler
	Sections    *SectionHandler
	Rooms       *RoomHandler
	Departments *DepartmentHandler
	Faculty     *FacultyHandler
	Timetables  *TimetableHandler
	Conflicts   *ConflictHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API. Reads are public; schedule writes need an
// editor token and admin management needs a superadmin.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	auth := middleware.JWT(tokens)
	editors := middleware.Editors()

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", auth, h.Auth.Logout)
	authGroup.POST("/change-password", auth, h.Auth.ChangePassword)

	admins := api.Group("/admins", auth)
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	admins.GET("", superadmin, h.Users.List)
	admins.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), middleware.RoleSelf), h.Users.Get)
	admins.POST("", superadmin, h.Users.Create)
	admins.PUT("/:id", superadmin, h.Users.Update)
	admins.DELETE("/:id", superadmin, h.Users.Delete)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", auth, editors, h.Courses.Create)
	courses.PUT("/:id", auth, editors, h.Courses.Update)
	courses.DELETE("/:id", auth, editors, h.Courses.Delete)
	courses.DELETE("/:id/sections/:section", auth, editors, h.Courses.DeleteSection)

	sections := api.Group("/sections")
	sections.GET("", h.Sections.List)
	sections.GET("/:id", h.Sections.Get)
	sections.POST("", auth, editors, h.Sections.Create)
	sections.PUT("/:id", auth, editors, h.Sections.Replace)
	sections.PATCH("/:id", auth, editors, h.Sections.Patch)
	sections.DELETE("/:id", auth, editors, h.Sections.Delete)

	rooms := api.Group("/rooms")
	rooms.GET("", h.Rooms.List)
	rooms.GET("/:id", h.Rooms.Get)
	rooms.GET("/:id/timetable", h.Timetables.Room)
	rooms.GET("/:id/timetable/export", h.Timetables.ExportRoom)
	rooms.POST("", auth, editors, h.Rooms.Create)
	rooms.PUT("/:id", auth, editors, h.Rooms.Update)
	rooms.DELETE("/:id", auth, editors, h.Rooms.Delete)

	departments := api.Group("/departments")
	departments.GET("", h.Departments.List)
	departments.GET("/:id", h.Departments.Get)
	departments.POST("", auth, editors, h.Departments.Create)
	departments.PUT("/:id", auth, editors, h.Departments.Update)
	departments.DELETE("/:id", auth, editors, h.Departments.Delete)

	faculty := api.Group("/faculty")
	faculty.GET("", h.Faculty.List)
	faculty.GET("/:id", h.Faculty.Get)
	faculty.GET("/:id/timetable", h.Timetables.Faculty)
	faculty.GET("/:id/timetable/export", h.Timetables.ExportFaculty)
	faculty.POST("", auth, editors, h.Faculty.Create)
	faculty.PUT("/:id", auth, editors, h.Faculty.Update)
	faculty.DELETE("/:id", auth, editors, h.Faculty.Delete)

	api.POST("/conflicts/check", h.Conflicts.Check)
	api.GET("/metrics/summary", auth, editors, h.Metrics.Summary)
}
