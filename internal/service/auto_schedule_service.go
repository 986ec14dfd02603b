package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
)

const (
	reasonCommitConflict = "conflict on commit"
	reasonCommitCapacity = "units filled on commit"
)

// droppedBlock is a planned block rejected by commit-time re-validation.
type droppedBlock struct {
	block  models.ScheduledSubject
	reason string
}

type autoBlockStore interface {
	LockScope(ctx context.Context, exec sqlx.ExtContext, key string) error
	ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.ScheduledSubject, error)
	ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID string, day models.Day) ([]models.ScheduledSubject, error)
	ListBySectionDay(ctx context.Context, exec sqlx.ExtContext, sectionID string, day models.Day) ([]models.ScheduledSubject, error)
	ListBySectionSubject(ctx context.Context, exec sqlx.ExtContext, sectionID, subjectID string) ([]models.ScheduledSubject, error)
	Create(ctx context.Context, exec sqlx.ExtContext, block *models.ScheduledSubject) error
}

type offeringReader interface {
	ListForOffering(ctx context.Context, courseID string, year int, semesters []models.Semester) ([]models.Subject, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type autoRunner interface {
	Run(input scheduling.AutoInput) (scheduling.AutoResult, error)
}

// AutoScheduleService fills the remaining units of a section automatically.
type AutoScheduleService struct {
	blocks   autoBlockStore
	sections sectionReader
	subjects offeringReader
	rooms    roomLister
	settings settingsProvider
	engine   autoRunner
	tx       txProvider
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAutoScheduleService constructs an AutoScheduleService.
func NewAutoScheduleService(
	blocks autoBlockStore,
	sections sectionReader,
	subjects offeringReader,
	rooms roomLister,
	settings settingsProvider,
	engine autoRunner,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *AutoScheduleService {
	if engine == nil {
		engine = scheduling.NewAutoScheduler(scheduling.DefaultAutoConfig(), nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoScheduleService{
		blocks:   blocks,
		sections: sections,
		subjects: subjects,
		rooms:    rooms,
		settings: settings,
		engine:   engine,
		tx:       tx,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// AutoSchedule plans blocks for every under-scheduled subject of a section
// and commits the ones that still fit once the schedule lock is held.
func (s *AutoScheduleService) AutoSchedule(ctx context.Context, sectionID string) (*dto.AutoScheduleResponse, error) {
	started := s.now()

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
	}
	subjects, err := s.subjects.ListForOffering(ctx, section.CourseID, section.Year, section.Semester.ActiveSemesters())
	if err != nil {
		return nil, internalError(err, "failed to load section subjects")
	}
	existing, err := s.blocks.ListAll(ctx, nil)
	if err != nil {
		return nil, internalError(err, "failed to load schedule")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load rooms")
	}

	result, err := s.engine.Run(scheduling.AutoInput{
		Section:  *section,
		Subjects: demandsFor(section.ID, subjects, existing),
		Existing: existing,
		Rooms:    rooms,
		Settings: settings,
	})
	if err != nil {
		return nil, translateSchedulingError(err)
	}

	units := make(map[string]float64, len(subjects))
	for _, subject := range subjects {
		units[subject.ID] = subject.Units
	}
	created, dropped, err := s.commit(ctx, result.Created, units)
	if err != nil {
		return nil, err
	}
	unscheduled := mergeDropped(result.Unscheduled, dropped)

	elapsed := s.now().Sub(started)
	s.metrics.RecordPlacements(PlacementAuto, len(created))
	s.metrics.ObserveAutoSchedule(elapsed, result.Attempts, len(unscheduled))
	if len(created) > 0 {
		_ = s.cache.Invalidate(ctx, SectionTimetableKey(sectionID))
	}
	s.logger.Info("auto schedule completed",
		zap.String("section_id", sectionID),
		zap.Int("created", len(created)),
		zap.Int("dropped", len(dropped)),
		zap.Int("unscheduled", len(unscheduled)),
		zap.Int("attempts", result.Attempts),
		zap.Duration("duration", elapsed),
	)

	resp := &dto.AutoScheduleResponse{
		SectionID:   sectionID,
		Created:     make([]dto.ScheduledSubjectResponse, 0, len(created)),
		Unscheduled: make([]dto.UnscheduledSubject, 0, len(unscheduled)),
		Attempts:    result.Attempts,
		DurationMs:  elapsed.Milliseconds(),
	}
	for _, block := range created {
		resp.Created = append(resp.Created, toBlockResponse(block))
	}
	for _, item := range unscheduled {
		resp.Unscheduled = append(resp.Unscheduled, dto.UnscheduledSubject{
			SubjectID:        item.SubjectID,
			RemainingMinutes: item.RemainingMinutes,
			Attempts:         item.Attempts,
			Reason:           item.Reason,
		})
	}
	return resp, nil
}

// commit inserts planned blocks under the schedule lock. Blocks that now
// clash with rows written since the plan was computed, or that no longer fit
// in their subject's units, are returned as dropped.
func (s *AutoScheduleService) commit(ctx context.Context, planned []models.ScheduledSubject, units map[string]float64) ([]models.ScheduledSubject, []droppedBlock, error) {
	if len(planned) == 0 {
		return nil, nil, nil
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, internalError(err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	if err := s.blocks.LockScope(ctx, tx, scheduleLockKey); err != nil {
		return nil, nil, internalError(err, "failed to lock schedule")
	}

	// Minutes left per subject, charged as blocks are inserted.
	remaining := make(map[string]float64)
	var created []models.ScheduledSubject
	var dropped []droppedBlock
	for _, block := range planned {
		left, ok := remaining[block.SubjectID]
		if !ok {
			placed, err := s.blocks.ListBySectionSubject(ctx, tx, block.SectionID, block.SubjectID)
			if err != nil {
				return nil, nil, internalError(err, "failed to load scheduled units")
			}
			left = scheduling.CalculateRemainingUnits(units[block.SubjectID], scheduling.Blocks(placed))
		}
		minutes, err := scheduling.DiffMinutes(block.StartTime, block.EndTime)
		if err != nil {
			return nil, nil, translateSchedulingError(err)
		}
		if err := scheduling.CheckCapacity(left, minutes); err != nil {
			s.logDropped(block, reasonCommitCapacity)
			dropped = append(dropped, droppedBlock{block: block, reason: reasonCommitCapacity})
			remaining[block.SubjectID] = left
			continue
		}

		roomBlocks, err := s.blocks.ListByRoomDay(ctx, tx, block.RoomID, block.Day)
		if err != nil {
			return nil, nil, internalError(err, "failed to load room schedule")
		}
		sectionBlocks, err := s.blocks.ListBySectionDay(ctx, tx, block.SectionID, block.Day)
		if err != nil {
			return nil, nil, internalError(err, "failed to load section schedule")
		}
		if hits := scheduling.FindConflicts(block.Block(), scheduling.MergeBookings(roomBlocks, sectionBlocks)); len(hits) > 0 {
			s.metrics.RecordConflict(hits[0].Source)
			s.logDropped(block, reasonCommitConflict)
			dropped = append(dropped, droppedBlock{block: block, reason: reasonCommitConflict})
			remaining[block.SubjectID] = left
			continue
		}

		item := block
		if err := s.blocks.Create(ctx, tx, &item); err != nil {
			return nil, nil, internalError(err, "failed to create scheduled subject")
		}
		created = append(created, item)
		remaining[block.SubjectID] = left - float64(minutes)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, internalError(err, "failed to commit auto schedule")
	}
	committed = true
	return created, dropped, nil
}

func (s *AutoScheduleService) logDropped(block models.ScheduledSubject, reason string) {
	s.logger.Warn("auto scheduled block dropped",
		zap.String("subject_id", block.SubjectID),
		zap.String("room_id", block.RoomID),
		zap.String("day", string(block.Day)),
		zap.String("start", block.StartTime),
		zap.String("end", block.EndTime),
		zap.String("reason", reason),
	)
}

func demandsFor(sectionID string, subjects []models.Subject, existing []models.ScheduledSubject) []scheduling.SubjectDemand {
	demands := make([]scheduling.SubjectDemand, 0, len(subjects))
	for _, subject := range subjects {
		subjectID := subject.ID
		placed := filterBlocks(existing, func(b models.ScheduledSubject) bool {
			return b.SectionID == sectionID && b.SubjectID == subjectID
		})
		required := subject.RequiredMinutes()
		remaining := scheduling.CalculateRemainingUnits(subject.Units, scheduling.Blocks(placed))
		demands = append(demands, scheduling.SubjectDemand{
			SubjectID:        subject.ID,
			RequiredMinutes:  required,
			ScheduledMinutes: required - remaining,
		})
	}
	return demands
}

// mergeDropped folds dropped blocks back into the unscheduled report.
func mergeDropped(unscheduled []scheduling.Unscheduled, dropped []droppedBlock) []scheduling.Unscheduled {
	out := append([]scheduling.Unscheduled{}, unscheduled...)
	index := make(map[string]int, len(out))
	for i, item := range out {
		index[item.SubjectID] = i
	}
	for _, drop := range dropped {
		minutes, _ := scheduling.DiffMinutes(drop.block.StartTime, drop.block.EndTime)
		if i, ok := index[drop.block.SubjectID]; ok {
			out[i].RemainingMinutes += float64(minutes)
			out[i].Reason = drop.reason
			continue
		}
		index[drop.block.SubjectID] = len(out)
		out = append(out, scheduling.Unscheduled{
			SubjectID:        drop.block.SubjectID,
			RemainingMinutes: float64(minutes),
			Reason:           drop.reason,
		})
	}
	return out
}
