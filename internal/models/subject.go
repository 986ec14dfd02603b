package models

import "time"

// Subject represents an academic subject with its credit units.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Units     float64   `db:"units" json:"units"`
	Semester  Semester  `db:"semester" json:"semester"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RequiredMinutes converts the subject units into instruction minutes.
func (s Subject) RequiredMinutes() float64 {
	return s.Units * 60
}
