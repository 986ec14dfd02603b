package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() { sqlxDB.Close() }
}

var blockColumns = []string{"id", "section_id", "subject_id", "room_id", "day", "start_time", "end_time", "created_at"}

func TestScheduledSubjectRepositoryListByRoomDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	rows := sqlmock.NewRows(blockColumns).
		AddRow("block-1", "section-1", "math", "room-1", "Monday", "08:00", "09:00", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduled_subjects WHERE room_id = $1 AND day = $2")).
		WithArgs("room-1", models.DayMonday).
		WillReturnRows(rows)

	blocks, err := repo.ListByRoomDay(context.Background(), nil, "room-1", models.DayMonday)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, models.DayMonday, blocks[0].Day)
	assert.Equal(t, "08:00", blocks[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledSubjectRepositoryListBySectionDayUsesTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduled_subjects WHERE section_id = $1 AND day = $2")).
		WithArgs("section-1", models.DayTuesday).
		WillReturnRows(sqlmock.NewRows(blockColumns))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	blocks, err := repo.ListBySectionDay(context.Background(), tx, "section-1", models.DayTuesday)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledSubjectRepositoryLockScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("schedule").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockScope(context.Background(), nil, "schedule"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_subjects")).
		WithArgs(sqlmock.AnyArg(), "section-1", "math", "room-1", models.DayMonday, "07:30", "09:30", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	block := &models.ScheduledSubject{SectionID: "section-1", SubjectID: "math", RoomID: "room-1", Day: models.DayMonday, StartTime: "07:30", EndTime: "09:30"}
	require.NoError(t, repo.Create(context.Background(), nil, block))
	assert.NotEmpty(t, block.ID)
	assert.False(t, block.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduledSubjectRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduled_subjects WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestScheduledSubjectRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_subjects WHERE id = $1")).
		WithArgs("block-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_subjects WHERE id = $1")).
		WithArgs("block-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), nil, "block-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), nil, "block-2")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestScheduledSubjectRepositoryDeleteBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_subjects WHERE section_id = $1")).
		WithArgs("section-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := repo.DeleteBySection(context.Background(), nil, "section-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestScheduledSubjectRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduledSubjectRepository(db)

	columns := append(append([]string{}, blockColumns...), "subject_code", "room_name", "instructor_id")
	rows := sqlmock.NewRows(columns).
		AddRow("block-1", "section-1", "math", "room-1", "Monday", "08:00", "09:00", time.Now(), "MATH101", "R-101", "inst-1").
		AddRow("block-2", "section-1", "pe", "room-2", "Tuesday", "10:00", "11:00", time.Now(), "PE1", "Gym", nil)
	mock.ExpectQuery("FROM scheduled_subjects ss").WithArgs("section-1").WillReturnRows(rows)

	blocks, err := repo.ListBySection(context.Background(), "section-1")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].InstructorID)
	assert.Equal(t, "inst-1", *blocks[0].InstructorID)
	assert.Nil(t, blocks[1].InstructorID)
}
