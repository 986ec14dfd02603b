package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type blockLocker interface {
	LockScope(ctx context.Context, exec sqlx.ExtContext, key string) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSubject, error)
}

type instructorAssignmentStore interface {
	FindByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) (*models.ScheduledInstructorAssignment, error)
	ListBlocksByInstructor(ctx context.Context, exec sqlx.ExtContext, instructorID string, semesters []models.Semester) ([]models.ScheduledSubject, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduledSubjectDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.ScheduledInstructorAssignment) error
}

// InstructorAssignmentService binds instructors to scheduled blocks.
type InstructorAssignmentService struct {
	blocks      blockLocker
	assignments instructorAssignmentStore
	instructors instructorReader
	settings    settingsProvider
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInstructorAssignmentService constructs an InstructorAssignmentService.
func NewInstructorAssignmentService(
	blocks blockLocker,
	assignments instructorAssignmentStore,
	instructors instructorReader,
	settings settingsProvider,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *InstructorAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorAssignmentService{
		blocks:      blocks,
		assignments: assignments,
		instructors: instructors,
		settings:    settings,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Assign gives a block to an instructor when the block is still unassigned
// and the instructor is free at that time in the active semester.
func (s *InstructorAssignmentService) Assign(ctx context.Context, scheduledSubjectID string, req dto.AssignInstructorRequest) (*dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	block, err := s.blocks.FindByID(ctx, nil, scheduledSubjectID)
	if err != nil {
		return nil, notFoundOr(err, "scheduled subject not found", "failed to load scheduled subject")
	}
	instructor, err := s.instructors.FindByID(ctx, req.InstructorID)
	if err != nil {
		return nil, notFoundOr(err, "instructor not found", "failed to load instructor")
	}
	if !instructor.Assignable() {
		return nil, appErrors.Clone(appErrors.ErrPrecondition, fmt.Sprintf("instructor is %s", instructor.Status))
	}
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, internalError(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	if err := s.blocks.LockScope(ctx, tx, "instructor:"+instructor.ID); err != nil {
		return nil, internalError(err, "failed to lock instructor")
	}

	existing, err := s.assignments.FindByScheduledSubject(ctx, tx, block.ID)
	switch {
	case err == nil && existing != nil:
		return nil, appErrors.Clone(appErrors.ErrAlreadyAssigned, "scheduled subject already has an instructor")
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, internalError(err, "failed to load assignment")
	}

	assigned, err := s.blocks.FindByID(ctx, tx, block.ID)
	if err != nil {
		return nil, notFoundOr(err, "scheduled subject not found", "failed to load scheduled subject")
	}
	taken, err := s.assignments.ListBlocksByInstructor(ctx, tx, instructor.ID, settings.Semester.ActiveSemesters())
	if err != nil {
		return nil, internalError(err, "failed to load instructor schedule")
	}
	if hits := scheduling.FindInstructorConflicts(*assigned, taken); len(hits) > 0 {
		s.metrics.RecordConflict(models.ConflictDimensionInstructor)
		return nil, conflictError(fmt.Sprintf("instructor already teaches on %s %s-%s", assigned.Day, assigned.StartTime, assigned.EndTime), hits)
	}

	assignment := &models.ScheduledInstructorAssignment{
		ScheduledSubjectID: assigned.ID,
		InstructorID:       instructor.ID,
	}
	if err := s.assignments.Create(ctx, tx, assignment); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyAssigned, "scheduled subject already has an instructor")
		}
		// the block was removed by a concurrent delete or section reset
		if isForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduled subject not found")
		}
		return nil, internalError(err, "failed to create assignment")
	}
	if err := tx.Commit(); err != nil {
		return nil, internalError(err, "failed to commit assignment")
	}
	committed = true

	s.metrics.RecordAssignment()
	_ = s.cache.Invalidate(ctx, SectionTimetableKey(assigned.SectionID))
	s.logger.Info("instructor assigned",
		zap.String("assignment_id", assignment.ID),
		zap.String("instructor_id", instructor.ID),
		zap.String("scheduled_subject_id", assigned.ID),
	)

	blockResp := toBlockResponse(*assigned)
	blockResp.InstructorID = &assignment.InstructorID
	return &dto.AssignmentResponse{
		ID:                 assignment.ID,
		InstructorID:       assignment.InstructorID,
		ScheduledSubjectID: assignment.ScheduledSubjectID,
		Block:              blockResp,
		CreatedAt:          assignment.CreatedAt,
	}, nil
}

// ListByInstructor returns the blocks an instructor teaches.
func (s *InstructorAssignmentService) ListByInstructor(ctx context.Context, instructorID string) ([]dto.ScheduledSubjectResponse, error) {
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		return nil, notFoundOr(err, "instructor not found", "failed to load instructor")
	}
	details, err := s.assignments.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, internalError(err, "failed to list instructor schedule")
	}
	return toDetailResponses(details), nil
}
