package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Schema creates the scheduling tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS subjects (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	units NUMERIC(4,2) NOT NULL CHECK (units > 0),
	semester TEXT NOT NULL,
	course_id TEXT NOT NULL,
	year INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	course_id TEXT NOT NULL,
	year INT NOT NULL,
	semester TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS instructors (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS scheduled_subjects (
	id TEXT PRIMARY KEY,
	section_id TEXT NOT NULL REFERENCES sections(id),
	subject_id TEXT NOT NULL REFERENCES subjects(id),
	room_id TEXT NOT NULL REFERENCES rooms(id),
	day TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_scheduled_subjects_room_day ON scheduled_subjects (room_id, day);
CREATE INDEX IF NOT EXISTS idx_scheduled_subjects_section_day ON scheduled_subjects (section_id, day);
CREATE TABLE IF NOT EXISTS scheduled_instructor_assignments (
	id TEXT PRIMARY KEY,
	scheduled_subject_id TEXT NOT NULL UNIQUE REFERENCES scheduled_subjects(id) ON DELETE CASCADE,
	instructor_id TEXT NOT NULL REFERENCES instructors(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
