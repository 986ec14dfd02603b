package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// InstructorAssignmentRepository persists instructor to block bindings.
type InstructorAssignmentRepository struct {
	db *sqlx.DB
}

// NewInstructorAssignmentRepository constructs the repository.
func NewInstructorAssignmentRepository(db *sqlx.DB) *InstructorAssignmentRepository {
	return &InstructorAssignmentRepository{db: db}
}

func (r *InstructorAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByScheduledSubject returns the assignment of a block or sql.ErrNoRows.
func (r *InstructorAssignmentRepository) FindByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) (*models.ScheduledInstructorAssignment, error) {
	const query = `SELECT id, scheduled_subject_id, instructor_id, created_at FROM scheduled_instructor_assignments WHERE scheduled_subject_id = $1`
	var assignment models.ScheduledInstructorAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, scheduledSubjectID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListBlocksByInstructor returns the blocks assigned to an instructor whose
// subject runs in one of the given semesters.
func (r *InstructorAssignmentRepository) ListBlocksByInstructor(ctx context.Context, exec sqlx.ExtContext, instructorID string, semesters []models.Semester) ([]models.ScheduledSubject, error) {
	if len(semesters) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(semesters)+1)
	args = append(args, instructorID)
	for _, sem := range semesters {
		args = append(args, sem)
	}
	query := fmt.Sprintf(`SELECT ss.id, ss.section_id, ss.subject_id, ss.room_id, ss.day, ss.start_time, ss.end_time, ss.created_at
FROM scheduled_instructor_assignments a
JOIN scheduled_subjects ss ON ss.id = a.scheduled_subject_id
JOIN subjects s ON s.id = ss.subject_id
WHERE a.instructor_id = $1 AND s.semester IN (%s)`, placeholdersFrom(2, len(semesters)))
	var blocks []models.ScheduledSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list instructor blocks: %w", err)
	}
	return blocks, nil
}

// ListByInstructor returns every block assigned to an instructor with details.
func (r *InstructorAssignmentRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduledSubjectDetail, error) {
	const query = `SELECT ss.id, ss.section_id, ss.subject_id, ss.room_id, ss.day, ss.start_time, ss.end_time, ss.created_at,
       s.code AS subject_code, r.name AS room_name, a.instructor_id
FROM scheduled_instructor_assignments a
JOIN scheduled_subjects ss ON ss.id = a.scheduled_subject_id
LEFT JOIN subjects s ON s.id = ss.subject_id
LEFT JOIN rooms r ON r.id = ss.room_id
WHERE a.instructor_id = $1
ORDER BY ss.day ASC, ss.start_time ASC`
	var blocks []models.ScheduledSubjectDetail
	if err := r.db.SelectContext(ctx, &blocks, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor schedule: %w", err)
	}
	return blocks, nil
}

// Create inserts an assignment. The unique scheduled_subject_id constraint
// rejects a second instructor for the same block.
func (r *InstructorAssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.ScheduledInstructorAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scheduled_instructor_assignments (id, scheduled_subject_id, instructor_id, created_at)
VALUES (:id, :scheduled_subject_id, :instructor_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment); err != nil {
		return fmt.Errorf("create instructor assignment: %w", err)
	}
	return nil
}

// DeleteBySection removes the assignments of every block in a section.
func (r *InstructorAssignmentRepository) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	const query = `DELETE FROM scheduled_instructor_assignments
WHERE scheduled_subject_id IN (SELECT id FROM scheduled_subjects WHERE section_id = $1)`
	res, err := r.exec(exec).ExecContext(ctx, query, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete section assignments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete section assignments rows: %w", err)
	}
	return affected, nil
}

// DeleteByScheduledSubject removes the assignment of a single block, if any.
func (r *InstructorAssignmentRepository) DeleteByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM scheduled_instructor_assignments WHERE scheduled_subject_id = $1`, scheduledSubjectID); err != nil {
		return fmt.Errorf("delete block assignment: %w", err)
	}
	return nil
}
