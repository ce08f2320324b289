package store

import "fmt"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS detections (
		id TEXT PRIMARY KEY,
		sign TEXT NOT NULL,
		confidence REAL NOT NULL CHECK(confidence >= 0 AND confidence <= 1),
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS signs (
		sign TEXT PRIMARY KEY COLLATE NOCASE,
		description TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		search_text TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at)`,
}

func (s *Store) migrate() error {
	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
