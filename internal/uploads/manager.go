// Package uploads manages image files on disk: one lazily created directory
// per truck plus a shared general directory.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/storage"
)

const (
	TrucksDir  = "trucks"
	GeneralDir = "general"

	MaxFileSize     = 10 << 20 // 10 MB
	MaxFiles        = 10
	MaxGeneralFiles = 5

	// URLPrefix is where the uploads root is served over HTTP.
	URLPrefix = "/uploads"
)

var allowedExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var truckIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// File is one incoming upload. Size is the declared size; the body is still
// cut off at MaxFileSize while copying.
type File struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Stored describes a file on disk.
type Stored struct {
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Manager stores and removes uploaded images.
type Manager struct {
	fs     *storage.FS
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used in stored filenames.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager rooted at dir along with its trucks and
// general subdirectories.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	fsys, err := storage.NewFS(dir)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		fs:     fsys,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, d := range []string{TrucksDir, GeneralDir} {
		if err := fsys.MkdirAll(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Root returns the absolute uploads directory.
func (m *Manager) Root() string { return m.fs.Root() }

// SaveTruckImages validates every file, then writes them into the truck's
// directory. If any write fails the files already written are removed.
func (m *Manager) SaveTruckImages(ctx context.Context, truckID string, files []File) ([]Stored, error) {
	if err := ValidateTruckID(truckID); err != nil {
		return nil, err
	}
	if err := validateFiles(files, MaxFiles); err != nil {
		return nil, err
	}
	return m.save(ctx, path.Join(TrucksDir, truckID), files)
}

// SaveGeneral stores site-wide images such as logos and banners.
func (m *Manager) SaveGeneral(ctx context.Context, files []File) ([]Stored, error) {
	if err := validateFiles(files, MaxGeneralFiles); err != nil {
		return nil, err
	}
	return m.save(ctx, GeneralDir, files)
}

// ListTruckImages returns the images stored for a truck, newest first. A truck
// without a directory has no images.
func (m *Manager) ListTruckImages(truckID string) ([]Stored, error) {
	if err := ValidateTruckID(truckID); err != nil {
		return nil, err
	}
	dir := path.Join(TrucksDir, truckID)
	infos, err := m.fs.List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Stored, 0, len(infos))
	for _, fi := range infos {
		if !allowedExt[strings.ToLower(path.Ext(fi.Name))] {
			continue
		}
		out = append(out, Stored{
			URL:        publicURL(dir, fi.Name),
			Filename:   fi.Name,
			Size:       fi.Size,
			UploadedAt: fi.ModTime,
		})
	}
	return out, nil
}

// DeleteTruckImage removes one image. The filename is checked for traversal
// before the file system is touched.
func (m *Manager) DeleteTruckImage(truckID, filename string) error {
	if err := ValidateTruckID(truckID); err != nil {
		return err
	}
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	rel := path.Join(TrucksDir, truckID, filename)
	ok, err := m.fs.Exists(rel)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Image")
	}
	if err := m.fs.Delete(rel); err != nil {
		return err
	}
	m.logger.Info("uploads: image deleted", slog.String("truck_id", truckID), slog.String("filename", filename))
	return nil
}

// DeleteTruck removes the truck's image directory. A missing directory is not
// an error.
func (m *Manager) DeleteTruck(truckID string) error {
	if err := ValidateTruckID(truckID); err != nil {
		return err
	}
	if err := m.fs.RemoveAll(path.Join(TrucksDir, truckID)); err != nil {
		return err
	}
	m.logger.Info("uploads: truck images deleted", slog.String("truck_id", truckID))
	return nil
}

// ValidateFilename rejects anything that is not a plain file name.
func ValidateFilename(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return apperr.Validation(apperr.CodeInvalidFilename, "Invalid filename", nil)
	}
	return nil
}

// ValidateTruckID accepts the slug alphabet used for truck ids.
func ValidateTruckID(id string) error {
	if len(id) > 300 || !truckIDRe.MatchString(id) {
		return apperr.Validation(apperr.CodeValidation, "Invalid truck id", map[string]string{"truckId": "must be a truck slug"})
	}
	return nil
}

func validateFiles(files []File, limit int) error {
	if len(files) == 0 {
		return apperr.Validation(apperr.CodeNoFiles, "No files uploaded", nil)
	}
	if len(files) > limit {
		return apperr.Validation(apperr.CodeTooManyFiles,
			fmt.Sprintf("Too many files. Maximum is %d files per upload.", limit), nil)
	}
	for _, f := range files {
		if f.Size > MaxFileSize {
			return apperr.Validation(apperr.CodeFileTooLarge, "File too large. Maximum file size is 10MB per file.",
				map[string]string{"file": f.OriginalName})
		}
		if !allowedType(f) {
			return apperr.Validation(apperr.CodeInvalidFileType, "Only image files (jpeg, jpg, png, gif, webp) are allowed",
				map[string]string{"file": f.OriginalName})
		}
	}
	return nil
}

func allowedType(f File) bool {
	if !allowedExt[strings.ToLower(path.Ext(f.OriginalName))] {
		return false
	}
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return false
	}
	return allowedMIME[strings.ToLower(mt)]
}

var errTooLarge = errors.New("file exceeds size limit")

func (m *Manager) save(ctx context.Context, dir string, files []File) ([]Stored, error) {
	if err := m.fs.MkdirAll(dir); err != nil {
		return nil, err
	}
	stored := make([]Stored, 0, len(files))
	var written []string
	cleanup := func() {
		for _, rel := range written {
			if err := m.fs.Delete(rel); err != nil {
				m.logger.Warn("uploads: cleanup failed", slog.String("file", rel), slog.String("error", err.Error()))
			}
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, err
		}
		now := m.now()
		name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + m.newID() + strings.ToLower(path.Ext(f.OriginalName))
		rel := path.Join(dir, name)

		n, err := m.fs.Save(rel, &limitedReader{r: f.Body, n: MaxFileSize})
		if err != nil {
			cleanup()
			if errors.Is(err, errTooLarge) {
				return nil, apperr.Validation(apperr.CodeFileTooLarge, "File too large. Maximum file size is 10MB per file.",
					map[string]string{"file": f.OriginalName})
			}
			return nil, fmt.Errorf("uploads: save %s: %w", f.OriginalName, err)
		}
		written = append(written, rel)
		stored = append(stored, Stored{
			URL:          publicURL(dir, name),
			Filename:     name,
			OriginalName: f.OriginalName,
			Size:         n,
			UploadedAt:   now,
		})
	}
	m.logger.Info("uploads: files stored", slog.String("dir", dir), slog.Int("count", len(stored)))
	return stored, nil
}

func publicURL(dir, name string) string {
	return URLPrefix + "/" + dir + "/" + name
}

// limitedReader fails instead of truncating once more than n bytes are read.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, errTooLarge
	}
	return n, err
}
