package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

// scheduleLockKey serialises every write that can create a room or section overlap.
const scheduleLockKey = "scheduled_subjects"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (scheduling.Settings, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// translateSchedulingError maps engine sentinels onto API errors.
func translateSchedulingError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	mapping := []struct {
		sentinel error
		target   *appErrors.Error
	}{
		{scheduling.ErrMalformedTime, appErrors.ErrMalformedTime},
		{scheduling.ErrInvalidRange, appErrors.ErrInvalidRange},
		{scheduling.ErrOutOfBounds, appErrors.ErrOutOfBounds},
		{scheduling.ErrOverAllocation, appErrors.ErrOverAllocation},
		{scheduling.ErrNoSlot, appErrors.ErrNoSlot},
		{scheduling.ErrInvalidSettings, appErrors.ErrInvalidSettings},
		{scheduling.ErrNoRooms, appErrors.ErrPrecondition},
	}
	for _, m := range mapping {
		if errors.Is(err, m.sentinel) {
			return appErrors.Wrap(err, m.target.Code, m.target.Status, err.Error())
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}

// conflictError reports the clashing blocks tagged with the resource they hold.
func conflictError(message string, hits []scheduling.Booking) error {
	dimension := models.ConflictDimensionSection
	if len(hits) > 0 {
		dimension = hits[0].Source
	}
	detail := &models.ScheduleConflictError{
		Type:      string(dimension),
		Message:   message,
		Conflicts: scheduling.ToConflicts(hits),
	}
	return appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func notFoundOr(err error, message, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func rollback(tx *sqlx.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}

func toBlockResponse(block models.ScheduledSubject) dto.ScheduledSubjectResponse {
	minutes, _ := scheduling.DiffMinutes(block.StartTime, block.EndTime)
	return dto.ScheduledSubjectResponse{
		ID:        block.ID,
		SectionID: block.SectionID,
		SubjectID: block.SubjectID,
		RoomID:    block.RoomID,
		Day:       block.Day,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		Minutes:   minutes,
		CreatedAt: block.CreatedAt,
	}
}

func toDetailResponses(details []models.ScheduledSubjectDetail) []dto.ScheduledSubjectResponse {
	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		as, _ := scheduling.ToMinutes(a.StartTime)
		bs, _ := scheduling.ToMinutes(b.StartTime)
		return as < bs
	})
	out := make([]dto.ScheduledSubjectResponse, 0, len(details))
	for _, detail := range details {
		resp := toBlockResponse(detail.ScheduledSubject)
		if detail.SubjectCode != nil {
			resp.SubjectCode = *detail.SubjectCode
		}
		if detail.RoomName != nil {
			resp.RoomName = *detail.RoomName
		}
		resp.InstructorID = detail.InstructorID
		out = append(out, resp)
	}
	return out
}

func filterBlocks(items []models.ScheduledSubject, keep func(models.ScheduledSubject) bool) []models.ScheduledSubject {
	var out []models.ScheduledSubject
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
