package scheduling

import (
	"sort"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// Booking is an existing block tagged with the resource it was fetched for.
type Booking struct {
	models.ScheduledSubject
	Source models.ConflictDimension
}

// MergeBookings combines the room and section bookings of one day into a
// single list ordered by start then end time. A block present in both inputs
// appears once per source.
func MergeBookings(room, section []models.ScheduledSubject) []Booking {
	merged := make([]Booking, 0, len(room)+len(section))
	for _, item := range room {
		merged = append(merged, Booking{ScheduledSubject: item, Source: models.ConflictDimensionRoom})
	}
	for _, item := range section {
		merged = append(merged, Booking{ScheduledSubject: item, Source: models.ConflictDimensionSection})
	}
	SortBookings(merged)
	return merged
}

// SortBookings orders bookings by day, start and end. Malformed entries sort last.
func SortBookings(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		aStart, aEnd, okA := span(a.Block())
		bStart, bEnd, okB := span(b.Block())
		if okA != okB {
			return okA
		}
		if aStart != bStart {
			return aStart < bStart
		}
		return aEnd < bEnd
	})
}

// ToConflicts converts tagged bookings into conflict diagnostics.
func ToConflicts(bookings []Booking) []models.ScheduleConflict {
	conflicts := make([]models.ScheduleConflict, 0, len(bookings))
	for _, booking := range bookings {
		conflicts = append(conflicts, models.ScheduleConflict{
			ScheduledSubjectID: booking.ID,
			SectionID:          booking.SectionID,
			SubjectID:          booking.SubjectID,
			RoomID:             booking.RoomID,
			Day:                booking.Day,
			StartTime:          booking.StartTime,
			EndTime:            booking.EndTime,
			Dimension:          booking.Source,
		})
	}
	return conflicts
}
