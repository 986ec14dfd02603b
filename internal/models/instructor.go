package models

import "time"

// InstructorStatus describes the employment state of an instructor.
type InstructorStatus string

const (
	InstructorStatusActive   InstructorStatus = "ACTIVE"
	InstructorStatusInactive InstructorStatus = "INACTIVE"
	InstructorStatusOnLeave  InstructorStatus = "ON_LEAVE"
)

// Instructor represents a teaching staff record.
type Instructor struct {
	ID        string           `db:"id" json:"id"`
	FullName  string           `db:"full_name" json:"full_name"`
	Status    InstructorStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Assignable reports whether the instructor can receive new blocks.
func (i Instructor) Assignable() bool {
	return i.Status == InstructorStatusActive
}
