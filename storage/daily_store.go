package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vastai-scraper/models"
)

// DailyFileStore appends rows to {dir}/{YYYY-MM-DD}-{type}s.csv. The header
// is written only by whoever creates the file.
// It is safe for concurrent use.
type DailyFileStore struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	locks map[models.ListingType]*sync.Mutex
}

// NewDailyFileStore returns a store rooted at dir. A nil clock means time.Now.
func NewDailyFileStore(dir string, now func() time.Time) *DailyFileStore {
	if now == nil {
		now = time.Now
	}
	return &DailyFileStore{dir: dir, now: now, locks: make(map[models.ListingType]*sync.Mutex)}
}

// EnsureDir creates the output directory and any missing parents.
func (s *DailyFileStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	return nil
}

// Path returns the file rows of listingType are appended to on day, using
// day's own location for the calendar date.
func (s *DailyFileStore) Path(listingType models.ListingType, day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%ss.csv", day.Format("2006-01-02"), listingType))
}

// Write appends rows to today's file for listingType. Zero rows is a no-op.
func (s *DailyFileStore) Write(_ context.Context, listingType models.ListingType, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	lock := s.lockFor(listingType)
	lock.Lock()
	defer lock.Unlock()

	return appendRows(s.Path(listingType, s.now()), rows)
}

// appendRows appends rows to path. A missing file is published with its
// header already in place by hard-linking a fully written temp file, so even
// a writer in another process never sees a headerless file.
func appendRows(path string, rows []models.Row) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		return appendTo(f, path, rows)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}

	created, err := publishNew(path, rows)
	if err != nil || created {
		return err
	}

	// lost the race to another writer; the file now has its header
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	return appendTo(f, path, rows)
}

func appendTo(f *os.File, path string, rows []models.Row) error {
	content, err := EncodeCSV(rows, false)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: append %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", path, err)
	}
	return nil
}

// publishNew creates path holding the header and rows. It returns
// created=false, err=nil when another writer created path first.
func publishNew(path string, rows []models.Row) (created bool, err error) {
	content, err := EncodeCSV(rows, true)
	if err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pending-*.csv")
	if err != nil {
		return false, fmt.Errorf("csv: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("csv: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("csv: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return false, fmt.Errorf("csv: chmod temp file: %w", err)
	}

	err = os.Link(tmpName, path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrExist):
		return false, nil
	}
	return publishExclusive(path, content)
}

// publishExclusive is the fallback for filesystems without hard links.
func publishExclusive(path string, content []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("csv: create %q: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("csv: write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("csv: close %q: %w", path, err)
	}
	return true, nil
}

// lockFor returns the lock serializing writes of one listing type. A type
// only ever writes to one day's file at a time, so the map stays bounded by
// the number of types.
func (s *DailyFileStore) lockFor(listingType models.ListingType) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[listingType]
	if !ok {
		l = &sync.Mutex{}
		s.locks[listingType] = l
	}
	return l
}
