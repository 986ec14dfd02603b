package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type autoRunnerStub struct {
	result scheduling.AutoResult
	input  scheduling.AutoInput
}

func (s *autoRunnerStub) Run(input scheduling.AutoInput) (scheduling.AutoResult, error) {
	s.input = input
	return s.result, nil
}

func autoSubjects() subjectStub {
	return subjectStub{
		"math": {ID: "math", Units: 3, CourseID: "bsit", Year: 1, Semester: models.SemesterFirst},
		"pe":   {ID: "pe", Units: 1, CourseID: "bsit", Year: 1, Semester: models.SemesterWhole},
		"lit":  {ID: "lit", Units: 2, CourseID: "bsit", Year: 1, Semester: models.SemesterSecond},
		"chem": {ID: "chem", Units: 2, CourseID: "bsce", Year: 1, Semester: models.SemesterFirst},
	}
}

func newAutoFixture(tx txProvider, blocks *blockStoreStub, rooms roomStub, engine autoRunner) (*AutoScheduleService, *MetricsService) {
	metrics := NewMetricsService()
	svc := NewAutoScheduleService(
		blocks,
		sectionStub{"sec-1": {ID: "sec-1", CourseID: "bsit", Year: 1, Semester: models.SemesterFirst}},
		autoSubjects(),
		rooms,
		settingsStub{settings: testSchedulerSettings()},
		engine,
		tx,
		nil,
		metrics,
		zap.NewNop(),
	)
	return svc, metrics
}

func TestAutoScheduleFillsSectionWithoutOverlap(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	blocks := &blockStoreStub{items: []models.ScheduledSubject{
		scheduledBlock("busy", "sec-9", "x", "room-1", models.DayMonday, "07:30", "12:00"),
	}}
	engine := scheduling.NewAutoScheduler(scheduling.DefaultAutoConfig(), rand.New(rand.NewSource(7)))
	svc, metrics := newAutoFixture(tx, blocks, roomStub{{ID: "room-1"}, {ID: "room-2"}}, engine)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.AutoSchedule(context.Background(), "sec-1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Created)
	assert.Empty(t, resp.Unscheduled)
	assert.Contains(t, blocks.locks, scheduleLockKey)

	minutes := map[string]int{}
	for _, block := range resp.Created {
		assert.Equal(t, "sec-1", block.SectionID)
		assert.NotEqual(t, "lit", block.SubjectID)
		assert.NotEqual(t, "chem", block.SubjectID)
		minutes[block.SubjectID] += block.Minutes
	}
	assert.Equal(t, 180, minutes["math"])
	assert.Equal(t, 60, minutes["pe"])

	for i, a := range blocks.items {
		for j, b := range blocks.items {
			if i >= j || (a.RoomID != b.RoomID && a.SectionID != b.SectionID) {
				continue
			}
			assert.False(t, scheduling.Overlaps(a.Block(), b.Block()), "%s overlaps %s", a.ID, b.ID)
		}
	}
	assert.EqualValues(t, len(resp.Created), metrics.Snapshot().PlacementsTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleSkipsSatisfiedSubjects(t *testing.T) {
	blocks := &blockStoreStub{items: []models.ScheduledSubject{
		scheduledBlock("m1", "sec-1", "math", "room-1", models.DayMonday, "08:00", "11:00"),
		scheduledBlock("p1", "sec-1", "pe", "room-1", models.DayTuesday, "08:00", "09:00"),
	}}
	engine := &autoRunnerStub{}
	svc, _ := newAutoFixture(noopTxProvider{}, blocks, roomStub{{ID: "room-1"}}, engine)

	resp, err := svc.AutoSchedule(context.Background(), "sec-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Created)
	assert.Empty(t, resp.Unscheduled)

	require.Len(t, engine.input.Subjects, 2)
	for _, demand := range engine.input.Subjects {
		assert.Zero(t, demand.Remaining(), demand.SubjectID)
	}
	assert.Len(t, engine.input.Existing, 2)
}

func TestAutoScheduleDropsBlocksTakenSincePlanning(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	blocks := &blockStoreStub{}
	engine := &autoRunnerStub{result: scheduling.AutoResult{
		Created: []models.ScheduledSubject{
			scheduledBlock("plan-1", "sec-1", "math", "room-1", models.DayMonday, "08:00", "09:00"),
			scheduledBlock("plan-2", "sec-1", "pe", "room-2", models.DayTuesday, "08:00", "09:00"),
		},
		Unscheduled: []scheduling.Unscheduled{},
		Attempts:    2,
	}}
	svc, metrics := newAutoFixture(tx, blocks, roomStub{{ID: "room-1"}, {ID: "room-2"}}, engine)

	// Another writer commits into room-1 after the plan was computed.
	blocks.items = append(blocks.items, scheduledBlock("late", "sec-5", "x", "room-1", models.DayMonday, "08:30", "09:30"))

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.AutoSchedule(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "plan-2", resp.Created[0].ID)
	require.Len(t, resp.Unscheduled, 1)
	assert.Equal(t, "math", resp.Unscheduled[0].SubjectID)
	assert.Equal(t, 60.0, resp.Unscheduled[0].RemainingMinutes)
	assert.Equal(t, reasonCommitConflict, resp.Unscheduled[0].Reason)
	assert.EqualValues(t, 1, metrics.Snapshot().UnplacedSubjects)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleDropsBlocksPastUnitsSincePlanning(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	blocks := &blockStoreStub{}
	engine := &autoRunnerStub{result: scheduling.AutoResult{
		Created: []models.ScheduledSubject{
			scheduledBlock("plan-1", "sec-1", "math", "room-1", models.DayMonday, "08:00", "11:00"),
			scheduledBlock("plan-2", "sec-1", "pe", "room-1", models.DayWednesday, "08:00", "09:00"),
		},
		Attempts: 2,
	}}
	svc, _ := newAutoFixture(tx, blocks, roomStub{{ID: "room-1"}, {ID: "room-2"}}, engine)

	// A manual placement fills math on another day after the plan was computed.
	blocks.items = append(blocks.items, scheduledBlock("manual", "sec-1", "math", "room-2", models.DayTuesday, "08:00", "11:00"))

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.AutoSchedule(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "plan-2", resp.Created[0].ID)
	require.Len(t, resp.Unscheduled, 1)
	assert.Equal(t, "math", resp.Unscheduled[0].SubjectID)
	assert.Equal(t, reasonCommitCapacity, resp.Unscheduled[0].Reason)

	placed, err := blocks.ListBySectionSubject(context.Background(), nil, "sec-1", "math")
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, "manual", placed[0].ID)
	assert.Equal(t, 0.0, scheduling.CalculateRemainingUnits(3, scheduling.Blocks(placed)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleChargesUnitsAcrossPlannedBlocks(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	blocks := &blockStoreStub{items: []models.ScheduledSubject{
		scheduledBlock("m1", "sec-1", "math", "room-1", models.DayMonday, "08:00", "10:00"),
	}}
	engine := &autoRunnerStub{result: scheduling.AutoResult{
		Created: []models.ScheduledSubject{
			scheduledBlock("plan-1", "sec-1", "math", "room-1", models.DayTuesday, "08:00", "09:00"),
			scheduledBlock("plan-2", "sec-1", "math", "room-1", models.DayThursday, "08:00", "09:00"),
		},
	}}
	svc, _ := newAutoFixture(tx, blocks, roomStub{{ID: "room-1"}}, engine)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.AutoSchedule(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "plan-1", resp.Created[0].ID)
	require.Len(t, resp.Unscheduled, 1)
	assert.Equal(t, 60.0, resp.Unscheduled[0].RemainingMinutes)
	assert.Equal(t, reasonCommitCapacity, resp.Unscheduled[0].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleWithoutRooms(t *testing.T) {
	svc, _ := newAutoFixture(noopTxProvider{}, &blockStoreStub{}, roomStub{}, nil)
	_, err := svc.AutoSchedule(context.Background(), "sec-1")
	requireAppError(t, err, appErrors.ErrPrecondition)
}

func TestAutoScheduleUnknownSection(t *testing.T) {
	svc, _ := newAutoFixture(noopTxProvider{}, &blockStoreStub{}, roomStub{{ID: "room-1"}}, nil)
	_, err := svc.AutoSchedule(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestMergeDropped(t *testing.T) {
	unscheduled := []scheduling.Unscheduled{{SubjectID: "math", RemainingMinutes: 30, Attempts: 50, Reason: "attempts exhausted"}}
	dropped := []droppedBlock{
		{block: scheduledBlock("a", "sec-1", "math", "room-1", models.DayMonday, "08:00", "09:00"), reason: reasonCommitConflict},
		{block: scheduledBlock("b", "sec-1", "pe", "room-1", models.DayMonday, "10:00", "11:30"), reason: reasonCommitCapacity},
	}
	out := mergeDropped(unscheduled, dropped)
	require.Len(t, out, 2)
	assert.Equal(t, 90.0, out[0].RemainingMinutes)
	assert.Equal(t, reasonCommitConflict, out[0].Reason)
	assert.Equal(t, "pe", out[1].SubjectID)
	assert.Equal(t, 90.0, out[1].RemainingMinutes)
	assert.Equal(t, reasonCommitCapacity, out[1].Reason)
	assert.Equal(t, 30.0, unscheduled[0].RemainingMinutes)
}
