// Package dictionary loads the built-in sign dictionary and answers lookups
// against the persisted copy.
package dictionary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/store"
)

//go:embed signs.json
var builtin []byte

// ErrInvalidEntry is returned when a dictionary entry has no sign name.
var ErrInvalidEntry = errors.New("invalid dictionary entry")

// Repository is the persistence used by a Dictionary.
type Repository interface {
	ReplaceAll(signs []store.Sign) error
	Find(sign string) (*store.Sign, error)
	Search(query string) ([]store.Sign, error)
	Count() (int, error)
}

// Parse decodes a JSON array of entries.
func Parse(r io.Reader) ([]store.Sign, error) {
	var entries []store.Sign
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}

	for i := range entries {
		entries[i].Sign = strings.TrimSpace(entries[i].Sign)
		if entries[i].Sign == "" {
			return nil, fmt.Errorf("entry %d: %w: empty sign", i, ErrInvalidEntry)
		}
		if entries[i].Tags == nil {
			entries[i].Tags = []string{}
		}
	}
	return entries, nil
}

// Builtin returns the entries embedded in the binary.
func Builtin() ([]store.Sign, error) {
	return Parse(bytes.NewReader(builtin))
}

// Dictionary serves sign lookups.
type Dictionary struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a Dictionary backed by repo.
func New(repo Repository, logger *zap.Logger) *Dictionary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dictionary{repo: repo, logger: logger}
}

// Load replaces the stored dictionary with entries.
func (d *Dictionary) Load(entries []store.Sign) error {
	if err := d.repo.ReplaceAll(entries); err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	d.logger.Info("dictionary loaded", zap.Int("entries", len(entries)))
	return nil
}

// LoadBuiltin replaces the stored dictionary with the embedded entries.
func (d *Dictionary) LoadBuiltin() error {
	entries, err := Builtin()
	if err != nil {
		return err
	}
	return d.Load(entries)
}

// Search returns entries whose sign, description or tags contain query,
// ignoring case and surrounding space. A blank query returns every entry.
func (d *Dictionary) Search(query string) ([]store.Sign, error) {
	return d.repo.Search(strings.TrimSpace(query))
}

// Find returns the entry named sign, ignoring case, or store.ErrNotFound.
func (d *Dictionary) Find(sign string) (*store.Sign, error) {
	return d.repo.Find(strings.TrimSpace(sign))
}

// Size returns the number of stored entries.
func (d *Dictionary) Size() (int, error) {
	return d.repo.Count()
}
