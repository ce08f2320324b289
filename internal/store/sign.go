package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sign is a dictionary entry.
type Sign struct {
	Sign        string   `json:"sign"`
	Description string   `json:"description"`
	VideoURL    string   `json:"videoUrl"`
	Tags        []string `json:"tags"`
}

// SignRepository stores dictionary entries.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

// Upsert inserts sign or replaces an entry with the same name.
func (r *SignRepository) Upsert(sign *Sign) error {
	tags, err := json.Marshal(nonNil(sign.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO signs (sign, description, video_url, tags, search_text) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(sign) DO UPDATE SET
			description = excluded.description,
			video_url = excluded.video_url,
			tags = excluded.tags,
			search_text = excluded.search_text`,
		sign.Sign, sign.Description, sign.VideoURL, string(tags), searchText(*sign),
	)
	if err != nil {
		return fmt.Errorf("upsert sign %q: %w", sign.Sign, err)
	}
	return nil
}

// ReplaceAll swaps the dictionary contents for signs in one transaction.
func (r *SignRepository) ReplaceAll(signs []Sign) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM signs`); err != nil {
		return fmt.Errorf("clear signs: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO signs (sign, description, video_url, tags, search_text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, s := range signs {
		tags, err := json.Marshal(nonNil(s.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err := stmt.Exec(s.Sign, s.Description, s.VideoURL, string(tags), searchText(s)); err != nil {
			return fmt.Errorf("import sign %q: %w", s.Sign, err)
		}
	}

	return tx.Commit()
}

// Find returns the entry whose name matches sign, ignoring case.
func (r *SignRepository) Find(sign string) (*Sign, error) {
	row := r.db.QueryRow(
		`SELECT sign, description, video_url, tags FROM signs WHERE sign = ? COLLATE NOCASE`,
		sign,
	)
	s, err := scanSign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sign: %w", err)
	}
	return s, nil
}

// Search returns entries whose name, description or tags contain query,
// ignoring case and accents, ordered by name. An empty query returns every
// entry.
func (r *SignRepository) Search(query string) ([]Sign, error) {
	pattern := "%" + escapeLike(fold(query)) + "%"

	rows, err := r.db.Query(
		`SELECT sign, description, video_url, tags FROM signs
		 WHERE search_text LIKE ? ESCAPE '\'
		 ORDER BY sign COLLATE NOCASE`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search signs: %w", err)
	}
	defer rows.Close()

	out := []Sign{}
	for rows.Next() {
		s, err := scanSign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sign: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Count returns the number of dictionary entries.
func (r *SignRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM signs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count signs: %w", err)
	}
	return n, nil
}

func scanSign(s scanner) (*Sign, error) {
	var (
		sign Sign
		tags string
	)
	if err := s.Scan(&sign.Sign, &sign.Description, &sign.VideoURL, &tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &sign.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %q: %w", sign.Sign, err)
	}
	return &sign, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
