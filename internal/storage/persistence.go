package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"paaharvest/internal/logger"
	"paaharvest/internal/models"
)

// Store is the per-keyword durable record store, one xlsx file per sanitized
// keyword under a single results directory.
type Store struct {
	dir string
	log *logger.Logger
}

// NewStore creates the results directory if needed and returns a store
// rooted there.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &Store{dir: dir, log: log}, nil
}

// PathFor returns the store file path for a keyword.
func (s *Store) PathFor(keyword string) string {
	return filepath.Join(s.dir, SanitizeKeyword(keyword)+".xlsx")
}

// LoadHistory reads a keyword's persisted records and returns their texts
// for seeding the dedup set. A corrupt or unreadable store is reported as a
// warning and treated as empty; it is never fatal.
func (s *Store) LoadHistory(keyword string) []string {
	records, err := readTable(s.PathFor(keyword))
	if err != nil {
		if !errors.Is(err, ErrStoreNotFound) {
			s.log.Warn("failed to load keyword history, treating as empty", "keyword", keyword, "error", err)
		}

		return nil
	}

	texts := make([]string, 0, len(records))
	for _, r := range records {
		texts = append(texts, r.Text)
	}

	return texts
}

// Records returns everything persisted for a keyword, or nothing when no
// store exists yet.
func (s *Store) Records(keyword string) ([]models.HarvestRecord, error) {
	records, err := readTable(s.PathFor(keyword))
	if errors.Is(err, ErrStoreNotFound) {
		return nil, nil
	}

	return records, err
}

// Checkpoint merges one new record into its keyword's store: read the
// current rows, append, dedup by text keeping the first occurrence, and
// atomically rewrite the file. Returns the store's record count and whether
// the write landed.
//
// Any fault degrades to writing the single record to a timestamped backup
// file; faults are reported but never propagated, so a persistence problem
// cannot abort the scraping session.
func (s *Store) Checkpoint(rec models.HarvestRecord) (int, bool) {
	path := s.PathFor(rec.OriginalKeyword)

	existing, err := readTable(path)
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		// The existing store could not be read; overwriting it here would
		// destroy whatever it still holds, so route the record to a backup.
		s.log.Error("failed to read store before merge", "path", path, "error", err)
		s.backup(rec)

		return 0, false
	}

	merged := dedupeByText(append(existing, rec))

	if err := writeTable(path, merged); err != nil {
		s.log.Error("checkpoint write failed", "path", path, "error", err)
		s.backup(rec)

		return 0, false
	}

	s.log.Info("record checkpointed", "text", truncateText(rec.Text, 60), "total", len(merged))

	return len(merged), true
}

// backup writes a single record to a timestamp-named file as the last-resort
// persistence path.
func (s *Store) backup(rec models.HarvestRecord) {
	path := filepath.Join(s.dir, fmt.Sprintf("paa_results_backup_%d.xlsx", time.Now().Unix()))

	if err := writeTable(path, []models.HarvestRecord{rec}); err != nil {
		s.log.Error("backup write also failed, record lost", "path", path, "error", err)

		return
	}

	s.log.Warn("record saved to backup store", "path", path)
}

// dedupeByText drops records whose text was already seen, keeping the first
// occurrence. Matching is exact and case-sensitive.
func dedupeByText(records []models.HarvestRecord) []models.HarvestRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]

	for _, r := range records {
		if _, ok := seen[r.Text]; ok {
			continue
		}

		seen[r.Text] = struct{}{}
		out = append(out, r)
	}

	return out
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	return string(runes[:max]) + "..."
}
