package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Schedule   *ScheduleHandler
	Auto       *AutoScheduleHandler
	Instructor *InstructorHandler
	Settings   *SettingsHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the scheduling API on api.
func RegisterRoutes(api gin.IRouter, h Handlers) {
	schedules := api.Group("/schedules")
	schedules.POST("", h.Schedule.Place)
	schedules.DELETE("/:id", h.Schedule.Delete)
	schedules.POST("/:id/instructor", h.Instructor.Assign)

	sections := api.Group("/sections/:id")
	sections.GET("/schedules", h.Schedule.ListBySection)
	sections.DELETE("/schedules", h.Schedule.ResetSection)
	sections.POST("/auto-schedule", h.Auto.AutoSchedule)
	sections.GET("/subjects/:subjectId/remaining", h.Schedule.Remaining)

	api.GET("/instructors/:id/schedules", h.Instructor.ListSchedules)

	api.GET("/settings", h.Settings.List)
	api.PUT("/settings/:key", h.Settings.Update)

	api.GET("/metrics/summary", h.Metrics.Summary)
}

// RegisterOps mounts the unversioned health and metrics endpoints.
func RegisterOps(r gin.IRouter, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
}
