package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

func testSettings() Settings {
	return Settings{
		DayStart:      "07:30",
		DayEnd:        "19:30",
		AvailableDays: []models.Day{models.DayMonday, models.DayTuesday, models.DayWednesday, models.DayThursday, models.DayFriday, models.DaySaturday},
		Semester:      models.SemesterFirst,
	}
}

func TestToMinutes(t *testing.T) {
	cases := map[string]int{
		"7:30":  450,
		"07:30": 450,
		"00:00": 0,
		"19:30": 1170,
		"23:59": 1439,
	}
	for input, want := range cases {
		got, err := ToMinutes(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "7", "25:00", "07:60", "abc", "7:3x"} {
		_, err := ToMinutes(input)
		assert.ErrorIs(t, err, ErrMalformedTime, input)
	}
}

func TestDiffMinutesMatchesToMinutes(t *testing.T) {
	for start := 0; start < 24*60; start += GridMinutes {
		for end := 0; end < 24*60; end += 90 {
			s, e := FormatMinutes(start), FormatMinutes(end)
			diff, err := DiffMinutes(s, e)
			require.NoError(t, err)
			assert.Equal(t, end-start, diff)
		}
	}
}

func TestToHours(t *testing.T) {
	assert.Equal(t, 1.5, ToHours(90))
	assert.Equal(t, 0.5, ToHours(30))
}

func TestIsValidTime(t *testing.T) {
	settings := testSettings()
	assert.True(t, IsValidTime("07:30", settings))
	assert.True(t, IsValidTime("19:30", settings))
	assert.True(t, IsValidTime("12:00", settings))
	assert.False(t, IsValidTime("07:00", settings))
	assert.False(t, IsValidTime("12:15", settings))
	assert.False(t, IsValidTime("20:00", settings))
	assert.False(t, IsValidTime("noon", settings))
}

func TestIsValidRange(t *testing.T) {
	assert.True(t, IsValidRange("08:00", "09:00"))
	assert.False(t, IsValidRange("09:00", "09:00"))
	assert.False(t, IsValidRange("10:00", "09:00"))
	assert.False(t, IsValidRange("bad", "09:00"))
}

func TestValidateBlock(t *testing.T) {
	settings := testSettings()

	require.NoError(t, ValidateBlock(models.TimeBlock{Day: models.DayMonday, StartTime: "08:00", EndTime: "09:30"}, settings))

	cases := []struct {
		name  string
		block models.TimeBlock
		want  error
	}{
		{"malformed", models.TimeBlock{Day: models.DayMonday, StartTime: "8h", EndTime: "09:00"}, ErrMalformedTime},
		{"reversed", models.TimeBlock{Day: models.DayMonday, StartTime: "10:00", EndTime: "09:00"}, ErrInvalidRange},
		{"empty", models.TimeBlock{Day: models.DayMonday, StartTime: "10:00", EndTime: "10:00"}, ErrInvalidRange},
		{"off grid", models.TimeBlock{Day: models.DayMonday, StartTime: "08:15", EndTime: "09:15"}, ErrInvalidRange},
		{"before start", models.TimeBlock{Day: models.DayMonday, StartTime: "07:00", EndTime: "08:00"}, ErrOutOfBounds},
		{"after end", models.TimeBlock{Day: models.DayMonday, StartTime: "19:00", EndTime: "20:00"}, ErrOutOfBounds},
		{"unavailable day", models.TimeBlock{Day: models.DaySunday, StartTime: "08:00", EndTime: "09:00"}, ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateBlock(tc.block, settings), tc.want)
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, testSettings().Validate())

	bad := testSettings()
	bad.DayEnd = "07:00"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	offGrid := testSettings()
	offGrid.DayStart = "07:15"
	assert.ErrorIs(t, offGrid.Validate(), ErrInvalidSettings)

	noDays := testSettings()
	noDays.AvailableDays = []models.Day{"Someday"}
	assert.ErrorIs(t, noDays.Validate(), ErrInvalidSettings)
}

func TestSettingsDaysSorted(t *testing.T) {
	settings := Settings{DayStart: "08:00", DayEnd: "17:00", AvailableDays: []models.Day{models.DayFriday, models.DayMonday, models.DayWednesday}}
	assert.Equal(t, []models.Day{models.DayMonday, models.DayWednesday, models.DayFriday}, settings.Days())

	all := Settings{DayStart: "08:00", DayEnd: "17:00"}
	assert.Equal(t, models.AllDays(), all.Days())
}
