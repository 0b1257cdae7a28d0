package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/checksum"
	"github.com/bhbtrucksales/storefront/internal/models"
)

const (
	// BackupRetention is how many backups are kept per data file.
	BackupRetention = 10
	// BackupDir is the backup directory, relative to the data directory.
	BackupDir = "backups"
)

// JSONStore persists the inventory document as a single JSON file.
//
// Writes are not serialized: two concurrent Read→modify→Write cycles both
// succeed and whichever rename lands last wins. Callers that need
// read-modify-write isolation must provide it themselves.
type JSONStore struct {
	fs       *FS
	filename string
	now      func() time.Time
	logger   *slog.Logger
}

// StoreOption configures a JSONStore.
type StoreOption func(*JSONStore)

// WithClock overrides the time source used for lastUpdated and backup names.
func WithClock(now func() time.Time) StoreOption {
	return func(s *JSONStore) { s.now = now }
}

// WithLogger sets the logger for backup bookkeeping.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *JSONStore) { s.logger = l }
}

// NewJSONStore returns a store for filename inside dataDir.
func NewJSONStore(dataDir, filename string, opts ...StoreOption) (*JSONStore, error) {
	if filename == "" || path.Base(filename) != filename || !strings.HasSuffix(filename, ".json") {
		return nil, fmt.Errorf("storage: invalid data filename %q", filename)
	}
	fsys, err := NewFS(dataDir)
	if err != nil {
		return nil, err
	}
	s := &JSONStore{
		fs:       fsys,
		filename: filename,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bootstrap creates the backup directory and writes an empty document when
// the data file does not exist yet. An existing but unreadable file is
// reported and left untouched.
func (s *JSONStore) Bootstrap(ctx context.Context) error {
	if err := s.fs.MkdirAll(BackupDir); err != nil {
		return err
	}
	_, err := s.Read(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound):
		s.logger.Info("store: creating empty document", slog.String("file", s.filename))
		return s.Write(ctx, models.NewDocument())
	default:
		return err
	}
}

// Read loads and parses the data file.
func (s *JSONStore) Read(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.fs.Read(s.filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", apperr.ErrNotFound, s.filename)
		}
		return nil, apperr.Corruption(err)
	}
	return decode(data)
}

// Write backs up the current file, prunes old backups, stamps LastUpdated on
// doc and atomically replaces the data file. The file is re-read afterwards
// and a parse failure is reported as apperr.ErrDataCorruption.
func (s *JSONStore) Write(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.now()

	if err := s.backup(now); err != nil {
		return err
	}

	doc.LastUpdated = now
	if doc.Trucks == nil {
		doc.Trucks = []models.Truck{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode document: %w", err)
	}
	if err := s.fs.Write(s.filename, data); err != nil {
		return err
	}

	written, err := s.fs.Read(s.filename)
	if err != nil {
		return apperr.Corruption(err)
	}
	if _, err := decode(written); err != nil {
		return err
	}
	doc.Checksum = checksum.Sum(written)
	return nil
}

// Backups lists the backup files for this store, newest first. Backups with
// equal mtimes are ordered by the timestamp and collision sequence in their
// names.
func (s *JSONStore) Backups() ([]FileInfo, error) {
	all, err := s.fs.List(BackupDir)
	if err != nil {
		return nil, err
	}
	prefix := s.backupPrefix()
	out := all[:0]
	for _, f := range all {
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, ".json") {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		si, ni := backupOrder(out[i].Name, prefix)
		sj, nj := backupOrder(out[j].Name, prefix)
		if si != sj {
			return si > sj
		}
		return ni > nj
	})
	return out, nil
}

// backupOrder splits a backup name into its fixed-width timestamp and the
// collision sequence appended by backupName (0 when absent).
func backupOrder(name, prefix string) (string, int) {
	base := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
	if i := strings.LastIndex(base, "Z-"); i >= 0 {
		if n, err := strconv.Atoi(base[i+2:]); err == nil {
			return base[:i+1], n
		}
	}
	return base, 0
}

func (s *JSONStore) backup(now time.Time) error {
	current, err := s.fs.Read(s.filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: backup read: %w", err)
	}

	name, err := s.backupName(now)
	if err != nil {
		return err
	}
	rel := path.Join(BackupDir, name)
	if err := s.fs.Write(rel, current); err != nil {
		return fmt.Errorf("storage: backup write: %w", err)
	}
	if err := s.fs.Touch(rel, now); err != nil {
		return err
	}
	s.logger.Debug("store: created backup", slog.String("backup", name))

	return s.pruneBackups()
}

// backupName encodes the data filename and a timestamp with ':' and '.'
// replaced, e.g. trucks_2025-01-02T15-04-05-123456789Z.json. A stamp that is
// already taken gets the next sequence after the highest one present, so a
// pruned slot is never reused.
func (s *JSONStore) backupName(now time.Time) (string, error) {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	prefix := s.backupPrefix()

	existing, err := s.fs.List(BackupDir)
	if err != nil {
		return "", err
	}
	next := -1
	for _, f := range existing {
		if !strings.HasPrefix(f.Name, prefix) || !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		if st, n := backupOrder(f.Name, prefix); st == stamp && n >= next {
			next = n + 1
		}
	}
	if next < 0 {
		return prefix + stamp + ".json", nil
	}
	return fmt.Sprintf("%s%s-%03d.json", prefix, stamp, next), nil
}

func (s *JSONStore) backupPrefix() string {
	return strings.TrimSuffix(s.filename, ".json") + "_"
}

func (s *JSONStore) pruneBackups() error {
	backups, err := s.Backups()
	if err != nil {
		return err
	}
	if len(backups) <= BackupRetention {
		return nil
	}
	for _, b := range backups[BackupRetention:] {
		if err := s.fs.Delete(b.Path); err != nil {
			return err
		}
		s.logger.Debug("store: deleted old backup", slog.String("backup", b.Name))
	}
	return nil
}

func decode(data []byte) (*models.Document, error) {
	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, apperr.Corruption(err)
	}
	if doc.Trucks == nil {
		doc.Trucks = []models.Truck{}
	}
	if doc.AboutPage.Content == nil {
		doc.AboutPage.Content = []models.Section{}
	}
	doc.Checksum = checksum.Sum(data)
	return doc, nil
}
