package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// GridMinutes is the alignment every start and end time must respect.
const GridMinutes = 30

// ToMinutes parses an "H:MM" or "HH:MM" 24-hour time into minutes past midnight.
func ToMinutes(value string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// FormatMinutes renders minutes past midnight as "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DiffMinutes returns end minus start. The result may be negative.
func DiffMinutes(start, end string) (int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// ToHours converts minutes to fractional hours.
func ToHours(minutes float64) float64 {
	return minutes / 60
}

// IsValidTime reports whether value parses, sits on the grid and lies within the day bounds.
func IsValidTime(value string, settings Settings) bool {
	minutes, err := ToMinutes(value)
	if err != nil || minutes%GridMinutes != 0 {
		return false
	}
	start, end, err := settings.Bounds()
	if err != nil {
		return false
	}
	return minutes >= start && minutes <= end
}

// IsValidRange reports whether start is strictly before end.
func IsValidRange(start, end string) bool {
	diff, err := DiffMinutes(start, end)
	return err == nil && diff > 0
}

// ValidateBlock checks a block against every grid and bounds rule, returning
// ErrMalformedTime, ErrInvalidRange or ErrOutOfBounds.
func ValidateBlock(block models.TimeBlock, settings Settings) error {
	start, err := ToMinutes(block.StartTime)
	if err != nil {
		return err
	}
	end, err := ToMinutes(block.EndTime)
	if err != nil {
		return err
	}
	if !IsValidRange(block.StartTime, block.EndTime) {
		return fmt.Errorf("%w: %s must be after %s", ErrInvalidRange, block.EndTime, block.StartTime)
	}
	if start%GridMinutes != 0 || end%GridMinutes != 0 {
		return fmt.Errorf("%w: times must align to %d minutes", ErrInvalidRange, GridMinutes)
	}
	if _, _, err := settings.Bounds(); err != nil {
		return err
	}
	if !IsValidTime(block.StartTime, settings) || !IsValidTime(block.EndTime, settings) {
		return fmt.Errorf("%w: %s-%s outside %s-%s", ErrOutOfBounds, block.StartTime, block.EndTime, settings.DayStart, settings.DayEnd)
	}
	if !settings.DayAvailable(block.Day) {
		return fmt.Errorf("%w: %s is not a scheduling day", ErrOutOfBounds, block.Day)
	}
	return nil
}

// span returns the block bounds in minutes; ok is false when either side is malformed.
func span(block models.TimeBlock) (start, end int, ok bool) {
	s, err := ToMinutes(block.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := ToMinutes(block.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}
