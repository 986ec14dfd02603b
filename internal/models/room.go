package models

import "time"

// RoomType classifies rooms (lecture hall, laboratory, ...).
type RoomType string

const (
	RoomTypeLecture    RoomType = "LECTURE"
	RoomTypeLaboratory RoomType = "LABORATORY"
)

// Room is a bookable teaching space.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      RoomType  `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
