package scheduling

import (
	"fmt"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// Settings is the configuration snapshot a single scheduling operation runs with.
type Settings struct {
	DayStart      string          `json:"day_start"`
	DayEnd        string          `json:"day_end"`
	AvailableDays []models.Day    `json:"available_days"`
	Semester      models.Semester `json:"semester"`
}

// Bounds returns the day start and end in minutes past midnight.
func (s Settings) Bounds() (int, int, error) {
	start, err := ToMinutes(s.DayStart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: day start: %v", ErrInvalidSettings, err)
	}
	end, err := ToMinutes(s.DayEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: day end: %v", ErrInvalidSettings, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: day start %s must precede day end %s", ErrInvalidSettings, s.DayStart, s.DayEnd)
	}
	return start, end, nil
}

// DayAvailable reports whether day is one of the configured scheduling days.
// An empty day list allows every known day.
func (s Settings) DayAvailable(day models.Day) bool {
	if !day.Valid() {
		return false
	}
	if len(s.AvailableDays) == 0 {
		return true
	}
	for _, d := range s.AvailableDays {
		if d == day {
			return true
		}
	}
	return false
}

// Days returns the scheduling days in weekday order.
func (s Settings) Days() []models.Day {
	var days []models.Day
	if len(s.AvailableDays) == 0 {
		days = models.AllDays()
	} else {
		days = make([]models.Day, 0, len(s.AvailableDays))
		for _, d := range s.AvailableDays {
			if d.Valid() {
				days = append(days, d)
			}
		}
	}
	models.SortDays(days)
	return days
}

// Validate checks that bounds parse, align to the grid and that at least one day is usable.
func (s Settings) Validate() error {
	start, end, err := s.Bounds()
	if err != nil {
		return err
	}
	if start%GridMinutes != 0 || end%GridMinutes != 0 {
		return fmt.Errorf("%w: day bounds must align to %d minutes", ErrInvalidSettings, GridMinutes)
	}
	if len(s.Days()) == 0 {
		return fmt.Errorf("%w: no valid scheduling days", ErrInvalidSettings)
	}
	return nil
}
