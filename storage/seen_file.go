package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

// FileStore persists the seen set as a flat JSON file, keyed by listing ID.
// Save writes to a temp file in the same directory and renames it over the
// target, so the store is never observed half-written.
type FileStore struct {
	path   string
	logger *utils.Logger
}

// NewFileStore creates a FileStore for the given path. The file does not
// need to exist yet.
func NewFileStore(path string, logger *utils.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the seen set. An absent file yields an empty set. A corrupt or
// unreadable file is logged and also yields an empty set — re-notifying is
// preferred over crashing. The legacy format (a bare JSON array of listing
// URLs) is migrated transparently.
func (s *FileStore) Load() (models.SeenSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("[seenstore] Cannot read %s (%v) — starting with empty set", s.path, err)
		}
		return models.SeenSet{}, nil
	}

	var seen models.SeenSet
	if err := json.Unmarshal(data, &seen); err == nil {
		return seen, nil
	}

	// Legacy format: a plain list of listing URLs.
	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		now := time.Now().UTC()
		seen = make(models.SeenSet, len(urls))
		for _, url := range urls {
			seen[models.ListingID(url, "")] = &models.SeenEntry{
				FirstSeen:   now,
				LastScraped: now,
				URL:         url,
			}
		}
		s.logger.Info("[seenstore] Migrated legacy list format: %d entries", len(seen))
		return seen, nil
	}

	s.logger.Warn("[seenstore] %s is corrupt — starting with empty set", s.path)
	return models.SeenSet{}, nil
}

// Save atomically rewrites the store with the full seen set.
func (s *FileStore) Save(seen models.SeenSet) error {
	data, err := json.MarshalIndent(seen, "", "  ")
	if err != nil {
		return fmt.Errorf("seenstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("seenstore: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("seenstore: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("seenstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("seenstore: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("seenstore: replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
