package dto

import (
	"time"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// PlaceScheduleRequest is the manual placement payload.
type PlaceScheduleRequest struct {
	SectionID string `json:"section_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// AssignInstructorRequest binds an instructor to a block.
type AssignInstructorRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
}

// ScheduledSubjectResponse is a block as returned by the API.
type ScheduledSubjectResponse struct {
	ID           string     `json:"id"`
	SectionID    string     `json:"section_id"`
	SubjectID    string     `json:"subject_id"`
	SubjectCode  string     `json:"subject_code,omitempty"`
	RoomID       string     `json:"room_id"`
	RoomName     string     `json:"room_name,omitempty"`
	Day          models.Day `json:"day"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Minutes      int        `json:"minutes"`
	InstructorID *string    `json:"instructor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AssignmentResponse describes a committed instructor assignment.
type AssignmentResponse struct {
	ID                 string                   `json:"id"`
	InstructorID       string                   `json:"instructor_id"`
	ScheduledSubjectID string                   `json:"scheduled_subject_id"`
	Block              ScheduledSubjectResponse `json:"block"`
	CreatedAt          time.Time                `json:"created_at"`
}

// RemainingUnitsResponse reports how much of a subject is still unscheduled for a section.
type RemainingUnitsResponse struct {
	SectionID        string  `json:"section_id"`
	SubjectID        string  `json:"subject_id"`
	Units            float64 `json:"units"`
	RequiredMinutes  float64 `json:"required_minutes"`
	ScheduledMinutes float64 `json:"scheduled_minutes"`
	RemainingMinutes float64 `json:"remaining_minutes"`
	RemainingHours   float64 `json:"remaining_hours"`
}

// ResetSectionResponse reports a section reset.
type ResetSectionResponse struct {
	SectionID          string `json:"section_id"`
	DeletedBlocks      int64  `json:"deleted_blocks"`
	DeletedAssignments int64  `json:"deleted_assignments"`
}

// UnscheduledSubject is a subject an auto-schedule run left under-scheduled.
type UnscheduledSubject struct {
	SubjectID        string  `json:"subject_id"`
	RemainingMinutes float64 `json:"remaining_minutes"`
	Attempts         int     `json:"attempts"`
	Reason           string  `json:"reason"`
}

// AutoScheduleResponse summarises an auto-schedule run.
type AutoScheduleResponse struct {
	SectionID   string                     `json:"section_id"`
	Created     []ScheduledSubjectResponse `json:"created"`
	Unscheduled []UnscheduledSubject       `json:"unscheduled"`
	Attempts    int                        `json:"attempts"`
	DurationMs  int64                      `json:"duration_ms"`
}

// MetricsSummary exposes aggregated counters without a Prometheus scrape.
type MetricsSummary struct {
	RequestsTotal    uint64    `json:"requests_total"`
	CacheHits        uint64    `json:"cache_hits"`
	CacheMisses      uint64    `json:"cache_misses"`
	CacheHitRatio    float64   `json:"cache_hit_ratio"`
	PlacementsTotal  uint64    `json:"placements_total"`
	ConflictsTotal   uint64    `json:"conflicts_total"`
	UnplacedSubjects uint64    `json:"unplaced_subjects"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generated_at"`
}
