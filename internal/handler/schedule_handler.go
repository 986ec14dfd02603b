package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/response"
)

type scheduleService interface {
	Place(ctx context.Context, req dto.PlaceScheduleRequest) (*dto.ScheduledSubjectResponse, error)
	Delete(ctx context.Context, id string) error
	ResetSection(ctx context.Context, sectionID string) (*dto.ResetSectionResponse, error)
	ListBySection(ctx context.Context, sectionID string) ([]dto.ScheduledSubjectResponse, error)
	Remaining(ctx context.Context, sectionID, subjectID string) (*dto.RemainingUnitsResponse, error)
}

// ScheduleHandler manages manual placement and section timetable endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Place godoc
// @Summary Place a subject block
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.PlaceScheduleRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Place(c *gin.Context) {
	var req dto.PlaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Place(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Delete godoc
// @Summary Delete a scheduled block
// @Tags Schedules
// @Param id path string true "Scheduled subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBySection godoc
// @Summary List section timetable
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/schedules [get]
func (h *ScheduleHandler) ListBySection(c *gin.Context) {
	blocks, err := h.service.ListBySection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, map[string]interface{}{"total": len(blocks)})
}

// ResetSection godoc
// @Summary Remove every block of a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/schedules [delete]
func (h *ScheduleHandler) ResetSection(c *gin.Context) {
	result, err := h.service.ResetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Remaining godoc
// @Summary Remaining minutes of a subject in a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/subjects/{subjectId}/remaining [get]
func (h *ScheduleHandler) Remaining(c *gin.Context) {
	result, err := h.service.Remaining(c.Request.Context(), c.Param("id"), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
