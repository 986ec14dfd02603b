package models

import (
	"sort"
	"strings"
)

// Day is a weekday token. Ordering follows dayOrder, not lexical order.
type Day string

const (
	DayMonday    Day = "Monday"
	DayTuesday   Day = "Tuesday"
	DayWednesday Day = "Wednesday"
	DayThursday  Day = "Thursday"
	DayFriday    Day = "Friday"
	DaySaturday  Day = "Saturday"
	DaySunday    Day = "Sunday"
)

var dayOrder = map[Day]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
	DaySunday:    7,
}

// AllDays lists every known day in iteration order.
func AllDays() []Day {
	return []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday}
}

// ParseDay resolves a day name case-insensitively.
func ParseDay(raw string) (Day, bool) {
	raw = strings.TrimSpace(raw)
	for day := range dayOrder {
		if strings.EqualFold(string(day), raw) {
			return day, true
		}
	}
	return "", false
}

// Index returns the 1-based position of the day, or 0 when unknown.
func (d Day) Index() int {
	return dayOrder[d]
}

// Valid reports whether d is a known day.
func (d Day) Valid() bool {
	_, ok := dayOrder[d]
	return ok
}

// SortDays orders days by their weekday position, unknown days last.
func SortDays(days []Day) {
	sort.SliceStable(days, func(i, j int) bool {
		return dayRank(days[i]) < dayRank(days[j])
	})
}

func dayRank(d Day) int {
	if idx := d.Index(); idx > 0 {
		return idx
	}
	return len(dayOrder) + 1
}
