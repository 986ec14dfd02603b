package scheduling

import (
	"fmt"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// MinutesPerUnit is the instruction time one credit unit buys.
const MinutesPerUnit = 60

// CalculateRemainingUnits returns the minutes still owed for a subject in a
// section: units*60 minus the length of every given block. The value is not
// clamped and may be zero or negative. A block with malformed times consumes
// whatever capacity is left.
func CalculateRemainingUnits(subjectUnits float64, blocks []models.TimeBlock) float64 {
	remaining := subjectUnits * MinutesPerUnit
	malformed := false
	for _, block := range blocks {
		diff, err := DiffMinutes(block.StartTime, block.EndTime)
		if err != nil {
			malformed = true
			continue
		}
		remaining -= float64(diff)
	}
	if malformed && remaining > 0 {
		return 0
	}
	return remaining
}

// CheckCapacity fails with ErrOverAllocation when duration minutes do not fit
// in remaining.
func CheckCapacity(remaining float64, duration int) error {
	if remaining <= 0 || float64(duration) > remaining {
		return fmt.Errorf("%w: %d minutes requested, %.0f remaining", ErrOverAllocation, duration, remaining)
	}
	return nil
}
