package scheduling

import "github.com/00-khi/class-scheduling-system-sub001/internal/models"

// Overlaps reports whether two blocks share a day and their half-open
// intervals intersect. Blocks with malformed times are treated as overlapping
// so corrupt bookings can never be double-booked around.
func Overlaps(a, b models.TimeBlock) bool {
	if a.Day != b.Day {
		return false
	}
	aStart, aEnd, okA := span(a)
	bStart, bEnd, okB := span(b)
	if !okA || !okB {
		return true
	}
	return aStart < bEnd && bStart < aEnd
}

// IsConflict reports whether candidate overlaps any existing block on its day.
// Callers pre-filter existing to the room and section scope.
func IsConflict(candidate models.TimeBlock, existing []models.TimeBlock) bool {
	for _, block := range existing {
		if Overlaps(candidate, block) {
			return true
		}
	}
	return false
}

// HasInstructorScheduleConflict reports whether candidate overlaps any block
// already assigned to the instructor in the active semester, regardless of
// room or section.
func HasInstructorScheduleConflict(candidate models.TimeBlock, instructorExisting []models.TimeBlock) bool {
	return IsConflict(candidate, instructorExisting)
}

// FindConflicts returns every booking overlapping candidate, keeping the
// source tag of each so callers can report which resource is taken.
func FindConflicts(candidate models.TimeBlock, bookings []Booking) []Booking {
	existing := make([]models.TimeBlock, 0, len(bookings))
	for _, booking := range bookings {
		existing = append(existing, booking.Block())
	}
	if !IsConflict(candidate, existing) {
		return nil
	}
	var hits []Booking
	for _, booking := range bookings {
		if Overlaps(candidate, booking.Block()) {
			hits = append(hits, booking)
		}
	}
	return hits
}

// FindInstructorConflicts tags every assigned block overlapping candidate.
// The candidate itself, matched by id, is ignored.
func FindInstructorConflicts(candidate models.ScheduledSubject, assigned []models.ScheduledSubject) []Booking {
	others := make([]models.ScheduledSubject, 0, len(assigned))
	for _, block := range assigned {
		if block.ID != "" && block.ID == candidate.ID {
			continue
		}
		others = append(others, block)
	}
	if !HasInstructorScheduleConflict(candidate.Block(), Blocks(others)) {
		return nil
	}
	var hits []Booking
	for _, block := range others {
		if Overlaps(candidate.Block(), block.Block()) {
			hits = append(hits, Booking{ScheduledSubject: block, Source: models.ConflictDimensionInstructor})
		}
	}
	return hits
}

// Blocks extracts the time blocks of scheduled subjects.
func Blocks(items []models.ScheduledSubject) []models.TimeBlock {
	blocks := make([]models.TimeBlock, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, item.Block())
	}
	return blocks
}
