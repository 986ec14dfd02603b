package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/response"
)

type instructorAssignmentService interface {
	Assign(ctx context.Context, scheduledSubjectID string, req dto.AssignInstructorRequest) (*dto.AssignmentResponse, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]dto.ScheduledSubjectResponse, error)
}

// InstructorHandler exposes instructor assignment endpoints.
type InstructorHandler struct {
	service instructorAssignmentService
}

// NewInstructorHandler constructs handler.
func NewInstructorHandler(svc instructorAssignmentService) *InstructorHandler {
	return &InstructorHandler{service: svc}
}

// Assign godoc
// @Summary Assign an instructor to a block
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Scheduled subject ID"
// @Param payload body dto.AssignInstructorRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedules/{id}/instructor [post]
func (h *InstructorHandler) Assign(c *gin.Context) {
	var req dto.AssignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListSchedules godoc
// @Summary List blocks taught by an instructor
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/schedules [get]
func (h *InstructorHandler) ListSchedules(c *gin.Context) {
	blocks, err := h.service.ListByInstructor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, map[string]interface{}{"total": len(blocks)})
}
