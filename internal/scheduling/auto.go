package scheduling

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// AutoConfig bounds the randomized search of the auto scheduler.
type AutoConfig struct {
	StepMinutes        int
	AttemptsPerSession int
	MaxBlockMinutes    int
}

// DefaultAutoConfig returns the stock search parameters.
func DefaultAutoConfig() AutoConfig {
	return AutoConfig{StepMinutes: 30, AttemptsPerSession: 50, MaxBlockMinutes: 180}
}

func (c AutoConfig) validate() error {
	if c.StepMinutes <= 0 || c.StepMinutes%GridMinutes != 0 {
		return fmt.Errorf("%w: step %d must be a positive multiple of %d", ErrInvalidSettings, c.StepMinutes, GridMinutes)
	}
	if c.AttemptsPerSession <= 0 {
		return fmt.Errorf("%w: attempts per session must be positive", ErrInvalidSettings)
	}
	if c.MaxBlockMinutes < c.StepMinutes {
		return fmt.Errorf("%w: max block %d shorter than step %d", ErrInvalidSettings, c.MaxBlockMinutes, c.StepMinutes)
	}
	return nil
}

// SubjectDemand is a subject the section must cover with its minutes so far.
type SubjectDemand struct {
	SubjectID        string
	RequiredMinutes  float64
	ScheduledMinutes float64
}

// Remaining returns the minutes still owed.
func (d SubjectDemand) Remaining() float64 {
	return d.RequiredMinutes - d.ScheduledMinutes
}

// AutoInput carries everything one auto-scheduling run reads.
type AutoInput struct {
	Section  models.Section
	Subjects []SubjectDemand
	// Existing holds every block in the system, used for room and section checks.
	Existing []models.ScheduledSubject
	Rooms    []models.Room
	Settings Settings
}

// Unscheduled reports a subject the run could not fully place.
type Unscheduled struct {
	SubjectID        string  `json:"subject_id"`
	RemainingMinutes float64 `json:"remaining_minutes"`
	Attempts         int     `json:"attempts"`
	Reason           string  `json:"reason"`
}

// AutoResult is the outcome of a run. Unplaced subjects are data, not errors.
type AutoResult struct {
	Created     []models.ScheduledSubject `json:"created"`
	Unscheduled []Unscheduled             `json:"unscheduled"`
	Attempts    int                       `json:"attempts"`
}

const (
	reasonAttemptsExhausted = "attempts exhausted"
	reasonBelowStep         = "remaining minutes below step"
)

// AutoScheduler greedily places under-scheduled subjects of a section using
// bounded random retries. It never backtracks across subjects.
type AutoScheduler struct {
	cfg   AutoConfig
	mu    sync.Mutex
	rng   *rand.Rand
	newID func() string
	now   func() time.Time
}

// NewAutoScheduler builds a scheduler. A nil rng is seeded from the clock.
func NewAutoScheduler(cfg AutoConfig, rng *rand.Rand) *AutoScheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AutoScheduler{
		cfg:   cfg,
		rng:   rng,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Config returns the search parameters.
func (a *AutoScheduler) Config() AutoConfig {
	return a.cfg
}

// Run places blocks for every subject of the section that still owes
// minutes. Each subject gets AttemptsPerSession tries shared across all of
// its blocks. New blocks join the working set immediately so later subjects
// see them. Only structural problems (bad settings, no rooms, corrupt
// bookings) return an error.
func (a *AutoScheduler) Run(input AutoInput) (AutoResult, error) {
	if err := a.cfg.validate(); err != nil {
		return AutoResult{}, err
	}
	if err := input.Settings.Validate(); err != nil {
		return AutoResult{}, err
	}
	if len(input.Rooms) == 0 {
		return AutoResult{}, ErrNoRooms
	}
	days := input.Settings.Days()

	a.mu.Lock()
	defer a.mu.Unlock()

	working := make([]models.ScheduledSubject, len(input.Existing))
	copy(working, input.Existing)

	subjects := make([]SubjectDemand, len(input.Subjects))
	copy(subjects, input.Subjects)
	sort.SliceStable(subjects, func(i, j int) bool {
		return subjects[i].Remaining() > subjects[j].Remaining()
	})

	result := AutoResult{Created: []models.ScheduledSubject{}, Unscheduled: []Unscheduled{}}
	for _, demand := range subjects {
		remaining := demand.Remaining()
		if remaining <= 0 {
			continue
		}
		attempts := 0
		for remaining >= float64(a.cfg.StepMinutes) && attempts < a.cfg.AttemptsPerSession {
			attempts++
			placed, ok, err := a.try(input.Section.ID, demand.SubjectID, remaining, days, input.Rooms, working, input.Settings)
			if err != nil {
				return AutoResult{}, err
			}
			if !ok {
				continue
			}
			working = append(working, placed)
			result.Created = append(result.Created, placed)
			remaining -= float64(blockMinutes(placed))
		}
		result.Attempts += attempts
		if remaining > 0 {
			reason := reasonAttemptsExhausted
			if remaining < float64(a.cfg.StepMinutes) {
				reason = reasonBelowStep
			}
			result.Unscheduled = append(result.Unscheduled, Unscheduled{
				SubjectID:        demand.SubjectID,
				RemainingMinutes: remaining,
				Attempts:         attempts,
				Reason:           reason,
			})
		}
	}
	return result, nil
}

// try makes one placement attempt. ok is false when the random candidate
// had no room on its day.
func (a *AutoScheduler) try(sectionID, subjectID string, remaining float64, days []models.Day, rooms []models.Room, working []models.ScheduledSubject, settings Settings) (models.ScheduledSubject, bool, error) {
	day := days[a.rng.Intn(len(days))]
	room := rooms[a.rng.Intn(len(rooms))]

	ceiling := min(int(remaining), a.cfg.MaxBlockMinutes)
	duration := (a.rng.Intn(ceiling/a.cfg.StepMinutes) + 1) * a.cfg.StepMinutes
	if err := CheckCapacity(remaining, duration); err != nil {
		return models.ScheduledSubject{}, false, nil
	}

	bookings := MergeBookings(
		filterBlocks(working, func(s models.ScheduledSubject) bool { return s.RoomID == room.ID && s.Day == day }),
		filterBlocks(working, func(s models.ScheduledSubject) bool { return s.SectionID == sectionID && s.Day == day }),
	)
	block, err := FindSlot(day, bookings, duration, settings)
	if errors.Is(err, ErrNoSlot) {
		return models.ScheduledSubject{}, false, nil
	}
	if err != nil {
		return models.ScheduledSubject{}, false, err
	}
	if len(FindConflicts(block, bookings)) > 0 {
		return models.ScheduledSubject{}, false, nil
	}

	return models.ScheduledSubject{
		ID:        a.newID(),
		SectionID: sectionID,
		SubjectID: subjectID,
		RoomID:    room.ID,
		Day:       block.Day,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		CreatedAt: a.now().UTC(),
	}, true, nil
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

func blockMinutes(item models.ScheduledSubject) int {
	diff, err := DiffMinutes(item.StartTime, item.EndTime)
	if err != nil {
		return 0
	}
	return diff
}
