package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type scheduledSubjectStore interface {
	LockScope(ctx context.Context, exec sqlx.ExtContext, key string) error
	ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID string, day models.Day) ([]models.ScheduledSubject, error)
	ListBySectionDay(ctx context.Context, exec sqlx.ExtContext, sectionID string, day models.Day) ([]models.ScheduledSubject, error)
	ListBySectionSubject(ctx context.Context, exec sqlx.ExtContext, sectionID, subjectID string) ([]models.ScheduledSubject, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduledSubjectDetail, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSubject, error)
	Create(ctx context.Context, exec sqlx.ExtContext, block *models.ScheduledSubject) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error)
}

type assignmentCleaner interface {
	DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error)
	DeleteByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) error
}

// ScheduleService handles manual placement, deletion and timetable reads.
type ScheduleService struct {
	blocks      scheduledSubjectStore
	assignments assignmentCleaner
	sections    sectionReader
	subjects    subjectReader
	rooms       roomReader
	settings    settingsProvider
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(
	blocks scheduledSubjectStore,
	assignments assignmentCleaner,
	sections sectionReader,
	subjects subjectReader,
	rooms roomReader,
	settings settingsProvider,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		blocks:      blocks,
		assignments: assignments,
		sections:    sections,
		subjects:    subjects,
		rooms:       rooms,
		settings:    settings,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Place validates a manual placement and commits it when the room and
// section are free and the subject still has units left. Conflicts are
// re-checked inside the transaction under the schedule lock.
func (s *ScheduleService) Place(ctx context.Context, req dto.PlaceScheduleRequest) (*dto.ScheduledSubjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day))
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}

	block := models.TimeBlock{Day: day, StartTime: req.StartTime, EndTime: req.EndTime}
	if err := scheduling.ValidateBlock(block, settings); err != nil {
		return nil, translateSchedulingError(err)
	}
	start, _ := scheduling.ToMinutes(req.StartTime)
	end, _ := scheduling.ToMinutes(req.EndTime)
	block.StartTime = scheduling.FormatMinutes(start)
	block.EndTime = scheduling.FormatMinutes(end)
	duration := end - start

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

	if err := s.blocks.LockScope(ctx, tx, scheduleLockKey); err != nil {
		return nil, internalError(err, "failed to lock schedule")
	}

	placed, err := s.blocks.ListBySectionSubject(ctx, tx, req.SectionID, req.SubjectID)
	if err != nil {
		return nil, internalError(err, "failed to load scheduled units")
	}
	remaining := scheduling.CalculateRemainingUnits(subject.Units, scheduling.Blocks(placed))
	if err := scheduling.CheckCapacity(remaining, duration); err != nil {
		return nil, translateSchedulingError(err)
	}

	roomBlocks, err := s.blocks.ListByRoomDay(ctx, tx, req.RoomID, day)
	if err != nil {
		return nil, internalError(err, "failed to load room schedule")
	}
	sectionBlocks, err := s.blocks.ListBySectionDay(ctx, tx, req.SectionID, day)
	if err != nil {
		return nil, internalError(err, "failed to load section schedule")
	}
	if hits := scheduling.FindConflicts(block, scheduling.MergeBookings(roomBlocks, sectionBlocks)); len(hits) > 0 {
		s.metrics.RecordConflict(hits[0].Source)
		return nil, conflictError(fmt.Sprintf("%s %s-%s is already taken", day, block.StartTime, block.EndTime), hits)
	}

	created := &models.ScheduledSubject{
		SectionID: req.SectionID,
		SubjectID: req.SubjectID,
		RoomID:    req.RoomID,
		Day:       day,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
	}
	if err := s.blocks.Create(ctx, tx, created); err != nil {
		return nil, internalError(err, "failed to create scheduled subject")
	}
	if err := tx.Commit(); err != nil {
		return nil, internalError(err, "failed to commit placement")
	}
	committed = true

	s.metrics.RecordPlacements(PlacementManual, 1)
	s.invalidateSection(ctx, req.SectionID)
	s.logger.Info("scheduled subject placed",
		zap.String("id", created.ID),
		zap.String("section_id", created.SectionID),
		zap.String("subject_id", created.SubjectID),
		zap.String("room_id", created.RoomID),
		zap.String("day", string(created.Day)),
		zap.String("start", created.StartTime),
		zap.String("end", created.EndTime),
	)
	resp := toBlockResponse(*created)
	return &resp, nil
}

// Delete removes a single block together with its instructor assignment.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return internalError(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	if err := s.blocks.LockScope(ctx, tx, scheduleLockKey); err != nil {
		return internalError(err, "failed to lock schedule")
	}
	block, err := s.blocks.FindByID(ctx, tx, id)
	if err != nil {
		return notFoundOr(err, "scheduled subject not found", "failed to load scheduled subject")
	}
	if err := s.assignments.DeleteByScheduledSubject(ctx, tx, id); err != nil {
		return internalError(err, "failed to delete instructor assignment")
	}
	deleted, err := s.blocks.Delete(ctx, tx, id)
	if err != nil {
		return internalError(err, "failed to delete scheduled subject")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "scheduled subject not found")
	}
	if err := tx.Commit(); err != nil {
		return internalError(err, "failed to commit deletion")
	}
	committed = true

	s.invalidateSection(ctx, block.SectionID)
	s.logger.Info("scheduled subject deleted", zap.String("id", id), zap.String("section_id", block.SectionID))
	return nil
}

// ResetSection deletes every block of a section and their assignments.
func (s *ScheduleService) ResetSection(ctx context.Context, sectionID string) (*dto.ResetSectionResponse, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
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

	if err := s.blocks.LockScope(ctx, tx, scheduleLockKey); err != nil {
		return nil, internalError(err, "failed to lock schedule")
	}
	assignments, err := s.assignments.DeleteBySection(ctx, tx, sectionID)
	if err != nil {
		return nil, internalError(err, "failed to delete section assignments")
	}
	blocks, err := s.blocks.DeleteBySection(ctx, tx, sectionID)
	if err != nil {
		return nil, internalError(err, "failed to delete section schedule")
	}
	if err := tx.Commit(); err != nil {
		return nil, internalError(err, "failed to commit section reset")
	}
	committed = true

	_ = s.cache.InvalidatePattern(ctx, SectionCachePattern(sectionID))
	s.logger.Info("section schedule reset",
		zap.String("section_id", sectionID),
		zap.Int64("blocks", blocks),
		zap.Int64("assignments", assignments),
	)
	return &dto.ResetSectionResponse{SectionID: sectionID, DeletedBlocks: blocks, DeletedAssignments: assignments}, nil
}

// ListBySection returns the timetable of a section in day then start order.
func (s *ScheduleService) ListBySection(ctx context.Context, sectionID string) ([]dto.ScheduledSubjectResponse, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
	}

	key := SectionTimetableKey(sectionID)
	var cached []dto.ScheduledSubjectResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	details, err := s.blocks.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, internalError(err, "failed to list section schedule")
	}
	resp := toDetailResponses(details)
	_ = s.cache.Set(ctx, key, resp, 0)
	return resp, nil
}

// Remaining reports the minutes a subject still owes in a section.
func (s *ScheduleService) Remaining(ctx context.Context, sectionID, subjectID string) (*dto.RemainingUnitsResponse, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	placed, err := s.blocks.ListBySectionSubject(ctx, nil, sectionID, subjectID)
	if err != nil {
		return nil, internalError(err, "failed to load scheduled units")
	}
	remaining := scheduling.CalculateRemainingUnits(subject.Units, scheduling.Blocks(placed))
	required := subject.RequiredMinutes()
	return &dto.RemainingUnitsResponse{
		SectionID:        sectionID,
		SubjectID:        subjectID,
		Units:            subject.Units,
		RequiredMinutes:  required,
		ScheduledMinutes: required - remaining,
		RemainingMinutes: remaining,
		RemainingHours:   scheduling.ToHours(remaining),
	}, nil
}

func (s *ScheduleService) invalidateSection(ctx context.Context, sectionID string) {
	_ = s.cache.Invalidate(ctx, SectionTimetableKey(sectionID))
}
