package models

// ConflictDimension names the resource on which two blocks collide.
type ConflictDimension string

const (
	ConflictDimensionRoom       ConflictDimension = "ROOM"
	ConflictDimensionSection    ConflictDimension = "SECTION"
	ConflictDimensionInstructor ConflictDimension = "INSTRUCTOR"
)

// ScheduleConflict describes an existing block that collides with a candidate.
type ScheduleConflict struct {
	ScheduledSubjectID string            `json:"scheduled_subject_id"`
	SectionID          string            `json:"section_id"`
	SubjectID          string            `json:"subject_id"`
	RoomID             string            `json:"room_id"`
	Day                Day               `json:"day"`
	StartTime          string            `json:"start_time"`
	EndTime            string            `json:"end_time"`
	Dimension          ConflictDimension `json:"dimension"`
}

// ScheduleConflictError is returned when a placement collides with existing blocks.
type ScheduleConflictError struct {
	Type      string             `json:"type"`
	Message   string             `json:"message"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
