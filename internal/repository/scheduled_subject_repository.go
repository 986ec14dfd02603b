package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

const scheduledSubjectColumns = `id, section_id, subject_id, room_id, day, start_time, end_time, created_at`

// ScheduledSubjectRepository persists timetable blocks.
type ScheduledSubjectRepository struct {
	db *sqlx.DB
}

// NewScheduledSubjectRepository constructs the repository.
func NewScheduledSubjectRepository(db *sqlx.DB) *ScheduledSubjectRepository {
	return &ScheduledSubjectRepository{db: db}
}

func (r *ScheduledSubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockScope takes a transaction scoped advisory lock on key. It must run
// inside a transaction; the lock is released on commit or rollback.
func (r *ScheduledSubjectRepository) LockScope(ctx context.Context, exec sqlx.ExtContext, key string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock schedule scope %s: %w", key, err)
	}
	return nil
}

// ListByRoomDay returns blocks occupying a room on a day.
func (r *ScheduledSubjectRepository) ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID string, day models.Day) ([]models.ScheduledSubject, error) {
	query := `SELECT ` + scheduledSubjectColumns + ` FROM scheduled_subjects WHERE room_id = $1 AND day = $2 ORDER BY start_time ASC`
	var blocks []models.ScheduledSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, roomID, day); err != nil {
		return nil, fmt.Errorf("list blocks by room day: %w", err)
	}
	return blocks, nil
}

// ListBySectionDay returns blocks of a section on a day.
func (r *ScheduledSubjectRepository) ListBySectionDay(ctx context.Context, exec sqlx.ExtContext, sectionID string, day models.Day) ([]models.ScheduledSubject, error) {
	query := `SELECT ` + scheduledSubjectColumns + ` FROM scheduled_subjects WHERE section_id = $1 AND day = $2 ORDER BY start_time ASC`
	var blocks []models.ScheduledSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, sectionID, day); err != nil {
		return nil, fmt.Errorf("list blocks by section day: %w", err)
	}
	return blocks, nil
}

// ListBySectionSubject returns the blocks already placed for a subject in a section.
func (r *ScheduledSubjectRepository) ListBySectionSubject(ctx context.Context, exec sqlx.ExtContext, sectionID, subjectID string) ([]models.ScheduledSubject, error) {
	query := `SELECT ` + scheduledSubjectColumns + ` FROM scheduled_subjects WHERE section_id = $1 AND subject_id = $2`
	var blocks []models.ScheduledSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, sectionID, subjectID); err != nil {
		return nil, fmt.Errorf("list blocks by section subject: %w", err)
	}
	return blocks, nil
}

// ListAll returns every block in the system.
func (r *ScheduledSubjectRepository) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.ScheduledSubject, error) {
	query := `SELECT ` + scheduledSubjectColumns + ` FROM scheduled_subjects`
	var blocks []models.ScheduledSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// ListBySection returns a section timetable with subject, room and instructor details.
func (r *ScheduledSubjectRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduledSubjectDetail, error) {
	const query = `SELECT ss.id, ss.section_id, ss.subject_id, ss.room_id, ss.day, ss.start_time, ss.end_time, ss.created_at,
       s.code AS subject_code, r.name AS room_name, a.instructor_id
FROM scheduled_subjects ss
LEFT JOIN subjects s ON s.id = ss.subject_id
LEFT JOIN rooms r ON r.id = ss.room_id
LEFT JOIN scheduled_instructor_assignments a ON a.scheduled_subject_id = ss.id
WHERE ss.section_id = $1
ORDER BY ss.day ASC, ss.start_time ASC`
	var blocks []models.ScheduledSubjectDetail
	if err := r.db.SelectContext(ctx, &blocks, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section timetable: %w", err)
	}
	return blocks, nil
}

// FindByID loads a block by id.
func (r *ScheduledSubjectRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSubject, error) {
	query := `SELECT ` + scheduledSubjectColumns + ` FROM scheduled_subjects WHERE id = $1`
	var block models.ScheduledSubject
	if err := sqlx.GetContext(ctx, r.exec(exec), &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Create inserts a block, filling id and created_at when empty.
func (r *ScheduledSubjectRepository) Create(ctx context.Context, exec sqlx.ExtContext, block *models.ScheduledSubject) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scheduled_subjects (id, section_id, subject_id, room_id, day, start_time, end_time, created_at)
VALUES (:id, :section_id, :subject_id, :room_id, :day, :start_time, :end_time, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, block); err != nil {
		return fmt.Errorf("create scheduled subject: %w", err)
	}
	return nil
}

// Delete removes a block and reports whether it existed.
func (r *ScheduledSubjectRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM scheduled_subjects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete scheduled subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete scheduled subject rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteBySection removes every block of a section and returns how many were deleted.
func (r *ScheduledSubjectRepository) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM scheduled_subjects WHERE section_id = $1`, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete section blocks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete section blocks rows: %w", err)
	}
	return affected, nil
}
