package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Detection is a persisted finalized sign result.
type Detection struct {
	ID         uuid.UUID `json:"id"`
	Sign       string    `json:"sign"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DetectionRepository stores finalized detections.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// Create inserts d, assigning an ID and timestamp when unset.
func (r *DetectionRepository) Create(d *Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO detections (id, sign, confidence, created_at) VALUES (?, ?, ?, ?)`,
		d.ID.String(), d.Sign, d.Confidence, d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	return nil
}

// Get returns the detection with id.
func (r *DetectionRepository) Get(id uuid.UUID) (*Detection, error) {
	row := r.db.QueryRow(
		`SELECT id, sign, confidence, created_at FROM detections WHERE id = ?`,
		id.String(),
	)

	d, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return d, nil
}

// List returns up to limit detections, newest first.
func (r *DetectionRepository) List(limit int) ([]Detection, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, sign, confidence, created_at FROM detections
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	out := []Detection{}
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Count returns the number of stored detections.
func (r *DetectionRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count detections: %w", err)
	}
	return n, nil
}

// DeleteAll removes every detection.
func (r *DetectionRepository) DeleteAll() error {
	if _, err := r.db.Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("delete detections: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDetection(s scanner) (*Detection, error) {
	var (
		d  Detection
		id string
	)
	if err := s.Scan(&id, &d.Sign, &d.Confidence, &d.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse detection id %q: %w", id, err)
	}
	d.ID = parsed
	return &d, nil
}
