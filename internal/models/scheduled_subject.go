package models

import "time"

// TimeBlock is a day plus a start/end time of day on the 30-minute grid.
type TimeBlock struct {
	Day       Day    `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ScheduledSubject is one concrete timetable entry for a section in a room.
type ScheduledSubject struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Day       Day       `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Block returns the time block occupied by the entry.
func (s ScheduledSubject) Block() TimeBlock {
	return TimeBlock{Day: s.Day, StartTime: s.StartTime, EndTime: s.EndTime}
}

// ScheduledSubjectDetail enriches a block with its instructor, if any.
type ScheduledSubjectDetail struct {
	ScheduledSubject
	SubjectCode  *string `db:"subject_code" json:"subject_code,omitempty"`
	RoomName     *string `db:"room_name" json:"room_name,omitempty"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
}

// ScheduledInstructorAssignment binds one instructor to one block.
type ScheduledInstructorAssignment struct {
	ID                 string    `db:"id" json:"id"`
	ScheduledSubjectID string    `db:"scheduled_subject_id" json:"scheduled_subject_id"`
	InstructorID       string    `db:"instructor_id" json:"instructor_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
