package dto

import "time"

// SettingItem represents a scheduler setting exposed via API.
type SettingItem struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Default   bool       `json:"default"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UpdateSettingRequest describes payload for updating a single setting.
type UpdateSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value" validate:"required"`
}
