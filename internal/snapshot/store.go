package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"opensentry/internal/logger"
)

var (
	// ErrInvalidFilename means the name would escape the snapshot directory.
	ErrInvalidFilename = errors.New("invalid snapshot filename")
	// ErrNotFound means no snapshot with that name exists.
	ErrNotFound = errors.New("snapshot not found")
)

// timestampLayout is the filename timestamp format. The full filename
// scheme "{class}_{timestamp}.jpg" is load-bearing: the detected class
// is recovered by splitting on the first underscore.
const timestampLayout = "20060102_150405"

// Record describes one stored snapshot, derived from the filesystem
// listing at call time.
type Record struct {
	Filename      string    `json:"filename"`
	DetectedClass string    `json:"detected_class"`
	SizeBytes     int64     `json:"size_bytes"`
	ModifiedAt    time.Time `json:"modified_at"`
	Path          string    `json:"path"`
}

// Store persists evidence snapshots in a single directory. The
// filesystem is the source of truth; nothing is cached in memory.
type Store struct {
	dir    string
	logger *logger.Logger
	now    func() time.Time
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, logger *logger.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Directory returns the snapshot directory path.
func (s *Store) Directory() string {
	return s.dir
}

// Save encodes the frame as JPEG under "{label}_{timestamp}.jpg",
// creating the directory if needed, and returns the filename.
func (s *Store) Save(label string, frame *gocv.Mat) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", label, s.now().Format(timestampLayout))
	fullPath := filepath.Join(s.dir, filename)

	if ok := gocv.IMWrite(fullPath, *frame); !ok {
		return "", fmt.Errorf("failed to encode snapshot %s", filename)
	}

	s.logger.Info("📸 Snapshot saved: %s", filename)
	return filename, nil
}

// List enumerates snapshot image files, newest first. Entries that
// vanish between the directory read and the stat are skipped.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File removed mid-enumeration.
			continue
		}

		records = append(records, Record{
			Filename:      entry.Name(),
			DetectedClass: ClassFromFilename(entry.Name()),
			SizeBytes:     info.Size(),
			ModifiedAt:    info.ModTime(),
			Path:          filepath.Join(s.dir, entry.Name()),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ModifiedAt.After(records[j].ModifiedAt)
	})

	return records, nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count() int {
	records, err := s.List()
	if err != nil {
		return 0
	}
	return len(records)
}

// Resolve validates the filename and returns the full path of an
// existing snapshot.
func (s *Store) Resolve(filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.dir, filename)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return fullPath, nil
}

// Delete removes one snapshot. The name is validated and its existence
// checked before any removal; the removal itself runs off the calling
// path so it never blocks a concurrent list or save.
func (s *Store) Delete(filename string) error {
	fullPath, err := s.Resolve(filename)
	if err != nil {
		return err
	}

	go func() {
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Failed to delete snapshot %s: %v", filename, err)
			return
		}
		s.logger.Info("Deleted snapshot: %s", filename)
	}()

	return nil
}

// DeleteAll removes every snapshot asynchronously and returns how many
// files were scheduled for deletion.
func (s *Store) DeleteAll() (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	go func() {
		for _, record := range records {
			if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
				s.logger.Error("Failed to delete snapshot %s: %v", record.Filename, err)
			}
		}
		s.logger.Info("Cleared %d snapshots from %s", len(records), s.dir)
	}()

	return len(records), nil
}

// ValidateFilename rejects names that contain path separators or
// parent-directory references before any filesystem access happens.
func ValidateFilename(filename string) error {
	if filename == "" ||
		strings.ContainsAny(filename, `/\`) ||
		strings.Contains(filename, "..") {
		return ErrInvalidFilename
	}
	return nil
}

// ClassFromFilename recovers the detected class from the part of the
// filename before the first underscore.
func ClassFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if idx := strings.Index(name, "_"); idx > 0 {
		return name[:idx]
	}
	return name
}

// isImageFile reports whether the name looks like a stored image.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
