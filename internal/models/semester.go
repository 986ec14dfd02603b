package models

import "strings"

// Semester identifies an academic term.
type Semester string

const (
	SemesterFirst  Semester = "First"
	SemesterSecond Semester = "Second"
	SemesterWhole  Semester = "Whole"
)

// ParseSemester resolves a semester name case-insensitively.
func ParseSemester(raw string) (Semester, bool) {
	raw = strings.TrimSpace(raw)
	for _, sem := range []Semester{SemesterFirst, SemesterSecond, SemesterWhole} {
		if strings.EqualFold(string(sem), raw) {
			return sem, true
		}
	}
	return "", false
}

// ActiveSemesters returns the subject semesters that run during s.
// Whole-year subjects run in every semester.
func (s Semester) ActiveSemesters() []Semester {
	if s == SemesterWhole {
		return []Semester{SemesterFirst, SemesterSecond, SemesterWhole}
	}
	return []Semester{s, SemesterWhole}
}
