package scheduling

import (
	"fmt"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

type interval struct {
	start int
	end   int
}

// FindSlot returns the earliest free interval of duration minutes on day that
// is clear of every booking. bookings is the merged room and section list for
// that day; entries on other days are ignored. Overlapping or unsorted input
// is coalesced before the gap walk. The first gap long enough wins, even if a
// tighter gap exists later. ErrNoSlot is returned when nothing fits.
func FindSlot(day models.Day, bookings []Booking, duration int, settings Settings) (models.TimeBlock, error) {
	if duration <= 0 || duration%GridMinutes != 0 {
		return models.TimeBlock{}, fmt.Errorf("%w: duration %d must be a positive multiple of %d", ErrInvalidRange, duration, GridMinutes)
	}
	dayStart, dayEnd, err := settings.Bounds()
	if err != nil {
		return models.TimeBlock{}, err
	}
	if !settings.DayAvailable(day) {
		return models.TimeBlock{}, fmt.Errorf("%w: %s is not a scheduling day", ErrOutOfBounds, day)
	}

	occupied, err := occupiedIntervals(day, bookings)
	if err != nil {
		return models.TimeBlock{}, err
	}

	walk := make([]interval, 0, len(occupied)+2)
	walk = append(walk, interval{start: dayStart, end: dayStart})
	walk = append(walk, occupied...)
	walk = append(walk, interval{start: dayEnd, end: dayEnd})

	for i := 0; i < len(walk)-1; i++ {
		gapStart := alignUp(max(walk[i].end, dayStart))
		gapEnd := min(walk[i+1].start, dayEnd)
		if gapEnd-gapStart >= duration {
			return models.TimeBlock{
				Day:       day,
				StartTime: FormatMinutes(gapStart),
				EndTime:   FormatMinutes(gapStart + duration),
			}, nil
		}
	}
	return models.TimeBlock{}, fmt.Errorf("%w: %d minutes on %s", ErrNoSlot, duration, day)
}

// occupiedIntervals sorts the bookings of day and merges overlapping or
// touching entries into disjoint intervals.
func occupiedIntervals(day models.Day, bookings []Booking) ([]interval, error) {
	sameDay := make([]Booking, 0, len(bookings))
	for _, booking := range bookings {
		if booking.Day == day {
			sameDay = append(sameDay, booking)
		}
	}
	SortBookings(sameDay)

	var merged []interval
	for _, booking := range sameDay {
		start, end, ok := span(booking.Block())
		if !ok {
			return nil, fmt.Errorf("%w: booking %s", ErrMalformedTime, booking.ID)
		}
		if len(merged) > 0 && start <= merged[len(merged)-1].end {
			if end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = end
			}
			continue
		}
		merged = append(merged, interval{start: start, end: end})
	}
	return merged, nil
}

func alignUp(minutes int) int {
	if rem := minutes % GridMinutes; rem != 0 {
		return minutes + GridMinutes - rem
	}
	return minutes
}
