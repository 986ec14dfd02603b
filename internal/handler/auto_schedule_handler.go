package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/response"
)

type autoScheduleService interface {
	AutoSchedule(ctx context.Context, sectionID string) (*dto.AutoScheduleResponse, error)
}

// AutoScheduleHandler triggers automatic placement for a section.
type AutoScheduleHandler struct {
	service autoScheduleService
	logger  *zap.Logger
}

// NewAutoScheduleHandler constructs handler.
func NewAutoScheduleHandler(svc autoScheduleService, logger *zap.Logger) *AutoScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoScheduleHandler{service: svc, logger: logger}
}

// AutoSchedule godoc
// @Summary Auto schedule a section
// @Description Places blocks for every subject of the section that still owes minutes. Subjects that could not be placed are listed under unscheduled.
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sections/{id}/auto-schedule [post]
func (h *AutoScheduleHandler) AutoSchedule(c *gin.Context) {
	result, err := h.service.AutoSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Unscheduled) > 0 {
		h.logger.Info("auto schedule left subjects unplaced",
			zap.String("section_id", result.SectionID),
			zap.Int("unscheduled", len(result.Unscheduled)),
		)
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{
		"created":     len(result.Created),
		"unscheduled": len(result.Unscheduled),
	})
}
