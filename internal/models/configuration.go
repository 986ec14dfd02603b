package models

import "time"

// Setting keys recognised by the scheduler.
const (
	SettingSemester      = "semester"
	SettingDayStart      = "dayStart"
	SettingDayEnd        = "dayEnd"
	SettingAvailableDays = "availableDays"
)

// Setting is a persisted scheduler setting keyed by name.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
