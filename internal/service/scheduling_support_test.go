package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

func testSchedulerSettings() scheduling.Settings {
	return scheduling.Settings{
		DayStart: "07:30",
		DayEnd:   "19:30",
		AvailableDays: []models.Day{
			models.DayMonday, models.DayTuesday, models.DayWednesday,
			models.DayThursday, models.DayFriday, models.DaySaturday,
		},
		Semester: models.SemesterFirst,
	}
}

type settingsStub struct {
	settings scheduling.Settings
	err      error
}

func (s settingsStub) Snapshot(ctx context.Context) (scheduling.Settings, error) {
	return s.settings, s.err
}

// blockStoreStub keeps scheduled subjects in memory and records advisory locks.
type blockStoreStub struct {
	items     []models.ScheduledSubject
	locks     []string
	created   []models.ScheduledSubject
	createErr error
	nextID    int
}

func (s *blockStoreStub) LockScope(ctx context.Context, exec sqlx.ExtContext, key string) error {
	s.locks = append(s.locks, key)
	return nil
}

func (s *blockStoreStub) filter(keep func(models.ScheduledSubject) bool) []models.ScheduledSubject {
	var out []models.ScheduledSubject
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *blockStoreStub) ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID string, day models.Day) ([]models.ScheduledSubject, error) {
	return s.filter(func(b models.ScheduledSubject) bool { return b.RoomID == roomID && b.Day == day }), nil
}

func (s *blockStoreStub) ListBySectionDay(ctx context.Context, exec sqlx.ExtContext, sectionID string, day models.Day) ([]models.ScheduledSubject, error) {
	return s.filter(func(b models.ScheduledSubject) bool { return b.SectionID == sectionID && b.Day == day }), nil
}

func (s *blockStoreStub) ListBySectionSubject(ctx context.Context, exec sqlx.ExtContext, sectionID, subjectID string) ([]models.ScheduledSubject, error) {
	return s.filter(func(b models.ScheduledSubject) bool { return b.SectionID == sectionID && b.SubjectID == subjectID }), nil
}

func (s *blockStoreStub) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.ScheduledSubject, error) {
	return append([]models.ScheduledSubject{}, s.items...), nil
}

func (s *blockStoreStub) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduledSubjectDetail, error) {
	var out []models.ScheduledSubjectDetail
	for _, item := range s.items {
		if item.SectionID == sectionID {
			out = append(out, models.ScheduledSubjectDetail{ScheduledSubject: item})
		}
	}
	return out, nil
}

func (s *blockStoreStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSubject, error) {
	for _, item := range s.items {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *blockStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, block *models.ScheduledSubject) error {
	if s.createErr != nil {
		return s.createErr
	}
	if block.ID == "" {
		s.nextID++
		block.ID = fmt.Sprintf("new-%d", s.nextID)
	}
	s.items = append(s.items, *block)
	s.created = append(s.created, *block)
	return nil
}

func (s *blockStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	before := len(s.items)
	s.items = s.filter(func(b models.ScheduledSubject) bool { return b.ID != id })
	return len(s.items) < before, nil
}

func (s *blockStoreStub) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	before := len(s.items)
	s.items = s.filter(func(b models.ScheduledSubject) bool { return b.SectionID != sectionID })
	return int64(before - len(s.items)), nil
}

// assignmentStoreStub resolves instructor blocks through the block store it shares.
type assignmentStoreStub struct {
	blocks    *blockStoreStub
	items     map[string]models.ScheduledInstructorAssignment
	createErr error
	semesters []models.Semester
}

func newAssignmentStoreStub(blocks *blockStoreStub) *assignmentStoreStub {
	return &assignmentStoreStub{blocks: blocks, items: map[string]models.ScheduledInstructorAssignment{}}
}

func (s *assignmentStoreStub) FindByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) (*models.ScheduledInstructorAssignment, error) {
	if item, ok := s.items[scheduledSubjectID]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStoreStub) ListBlocksByInstructor(ctx context.Context, exec sqlx.ExtContext, instructorID string, semesters []models.Semester) ([]models.ScheduledSubject, error) {
	s.semesters = semesters
	var out []models.ScheduledSubject
	for _, block := range s.blocks.items {
		if item, ok := s.items[block.ID]; ok && item.InstructorID == instructorID {
			out = append(out, block)
		}
	}
	return out, nil
}

func (s *assignmentStoreStub) ListByInstructor(ctx context.Context, instructorID string) ([]models.ScheduledSubjectDetail, error) {
	blocks, _ := s.ListBlocksByInstructor(ctx, nil, instructorID, nil)
	out := make([]models.ScheduledSubjectDetail, 0, len(blocks))
	for _, block := range blocks {
		id := instructorID
		out = append(out, models.ScheduledSubjectDetail{ScheduledSubject: block, InstructorID: &id})
	}
	return out, nil
}

func (s *assignmentStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.ScheduledInstructorAssignment) error {
	if s.createErr != nil {
		return s.createErr
	}
	if assignment.ID == "" {
		assignment.ID = "assignment-" + assignment.ScheduledSubjectID
	}
	s.items[assignment.ScheduledSubjectID] = *assignment
	return nil
}

func (s *assignmentStoreStub) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	var removed int64
	for _, block := range s.blocks.items {
		if block.SectionID != sectionID {
			continue
		}
		if _, ok := s.items[block.ID]; ok {
			delete(s.items, block.ID)
			removed++
		}
	}
	return removed, nil
}

func (s *assignmentStoreStub) DeleteByScheduledSubject(ctx context.Context, exec sqlx.ExtContext, scheduledSubjectID string) error {
	delete(s.items, scheduledSubjectID)
	return nil
}

type sectionStub map[string]models.Section

func (s sectionStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if item, ok := s[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

type subjectStub map[string]models.Subject

func (s subjectStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if item, ok := s[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (s subjectStub) ListForOffering(ctx context.Context, courseID string, year int, semesters []models.Semester) ([]models.Subject, error) {
	var out []models.Subject
	for _, item := range s {
		if item.CourseID != courseID || item.Year != year {
			continue
		}
		for _, sem := range semesters {
			if item.Semester == sem {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

type roomStub []models.Room

func (s roomStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	for _, item := range s {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s roomStub) List(ctx context.Context) ([]models.Room, error) {
	return append([]models.Room{}, s...), nil
}

type instructorStub map[string]models.Instructor

func (s instructorStub) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	if item, ok := s[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func scheduledBlock(id, sectionID, subjectID, roomID string, day models.Day, start, end string) models.ScheduledSubject {
	return models.ScheduledSubject{
		ID:        id,
		SectionID: sectionID,
		SubjectID: subjectID,
		RoomID:    roomID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
	}
}

func requireAppError(t *testing.T, err error, expected *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	assert.Equal(t, expected.Code, appErr.Code)
	assert.Equal(t, expected.Status, appErr.Status)
	return appErr
}

func TestTranslateSchedulingError(t *testing.T) {
	cases := []struct {
		err      error
		expected *appErrors.Error
	}{
		{fmt.Errorf("%w: 8am", scheduling.ErrMalformedTime), appErrors.ErrMalformedTime},
		{scheduling.ErrInvalidRange, appErrors.ErrInvalidRange},
		{scheduling.ErrOutOfBounds, appErrors.ErrOutOfBounds},
		{scheduling.ErrOverAllocation, appErrors.ErrOverAllocation},
		{scheduling.ErrNoSlot, appErrors.ErrNoSlot},
		{scheduling.ErrInvalidSettings, appErrors.ErrInvalidSettings},
		{scheduling.ErrNoRooms, appErrors.ErrPrecondition},
		{errors.New("boom"), appErrors.ErrInternal},
	}
	for _, tc := range cases {
		requireAppError(t, translateSchedulingError(tc.err), tc.expected)
	}
	assert.NoError(t, translateSchedulingError(nil))

	original := appErrors.Clone(appErrors.ErrNotFound, "missing")
	assert.Same(t, original, translateSchedulingError(original))
}

func TestConflictErrorCarriesDiagnostics(t *testing.T) {
	hits := []scheduling.Booking{{
		ScheduledSubject: scheduledBlock("b1", "sec-1", "math", "room-1", models.DayMonday, "08:00", "09:00"),
		Source:           models.ConflictDimensionRoom,
	}}
	err := conflictError("taken", hits)
	requireAppError(t, err, appErrors.ErrConflict)

	var detail *models.ScheduleConflictError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, string(models.ConflictDimensionRoom), detail.Type)
	require.Len(t, detail.Conflicts, 1)
	assert.Equal(t, "b1", detail.Conflicts[0].ScheduledSubjectID)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23503"})))
	assert.False(t, isForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(errors.New("plain")))
}

func TestToDetailResponsesOrdersByDayThenStart(t *testing.T) {
	details := []models.ScheduledSubjectDetail{
		{ScheduledSubject: scheduledBlock("c", "s", "x", "r", models.DayTuesday, "08:00", "09:00")},
		{ScheduledSubject: scheduledBlock("b", "s", "x", "r", models.DayMonday, "13:00", "14:00")},
		{ScheduledSubject: scheduledBlock("a", "s", "x", "r", models.DayMonday, "09:30", "10:00")},
	}
	resp := toDetailResponses(details)
	require.Len(t, resp, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{resp[0].ID, resp[1].ID, resp[2].ID})
	assert.Equal(t, 30, resp[0].Minutes)
}
