package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/telemetry"
	"github.com/bhbtrucksales/storefront/internal/uploads"
)

const (
	imagesField   = "images"
	maxFormMemory = 32 << 20
)

// UploadHandler accepts, lists and deletes image files.
type UploadHandler struct {
	mgr     *uploads.Manager
	metrics *telemetry.Metrics
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(mgr *uploads.Manager, metrics *telemetry.Metrics) *UploadHandler {
	return &UploadHandler{mgr: mgr, metrics: metrics}
}

// uploadedImage is a stored truck image plus the listing metadata the admin
// form submitted with it.
type uploadedImage struct {
	URL          string `json:"url"`
	Caption      string `json:"caption"`
	IsPrimary    bool   `json:"isPrimary"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

// UploadTruckImages handles POST /api/uploads/truck-images/{truckId}
// (multipart/form-data, field "images", optional "captions" and "primaryIndex").
func (h *UploadHandler) UploadTruckImages(w http.ResponseWriter, r *http.Request) {
	truckID := chi.URLParam(r, "truckId")
	form, files, err := h.parse(w, r, uploads.MaxFiles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.RemoveAll()

	stored, err := h.mgr.SaveTruckImages(r.Context(), truckID, files)
	closeAll(files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.AddUploads("truck", len(stored))

	captions := formCaptions(form, len(stored))
	primary := 0
	if v := formValue(form, "primaryIndex"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			primary = n
		}
	}

	images := make([]uploadedImage, len(stored))
	for i, s := range stored {
		caption := captions[i]
		if caption == "" {
			caption = fmt.Sprintf("Image %d", i+1)
		}
		images[i] = uploadedImage{
			URL:          s.URL,
			Caption:      caption,
			IsPrimary:    i == primary,
			Filename:     s.Filename,
			OriginalName: s.OriginalName,
			Size:         s.Size,
		}
	}
	writeOK(w, http.StatusOK, map[string]any{
		"images": images,
		"count":  len(images),
	}, fmt.Sprintf("Successfully uploaded %d image(s)", len(images)))
}

// ListTruckImages handles GET /api/uploads/truck-images/{truckId}.
func (h *UploadHandler) ListTruckImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.mgr.ListTruckImages(chi.URLParam(r, "truckId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"images": images}, fmt.Sprintf("Found %d image(s)", len(images)))
}

// DeleteTruckImage handles DELETE /api/uploads/truck-images/{truckId}/{filename}.
func (h *UploadHandler) DeleteTruckImage(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.DeleteTruckImage(chi.URLParam(r, "truckId"), chi.URLParam(r, "filename")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "Image deleted successfully")
}

// DeleteTruckImages handles DELETE /api/uploads/truck-images/{truckId}.
func (h *UploadHandler) DeleteTruckImages(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.DeleteTruck(chi.URLParam(r, "truckId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "All images deleted successfully")
}

// UploadGeneral handles POST /api/uploads/general.
func (h *UploadHandler) UploadGeneral(w http.ResponseWriter, r *http.Request) {
	form, files, err := h.parse(w, r, uploads.MaxGeneralFiles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.RemoveAll()

	stored, err := h.mgr.SaveGeneral(r.Context(), files)
	closeAll(files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.AddUploads("general", len(stored))
	writeOK(w, http.StatusOK, map[string]any{"files": stored},
		fmt.Sprintf("Successfully uploaded %d file(s)", len(stored)))
}

// parse reads the multipart form and opens every file in the images field.
// The body limit allows limit full-size files plus form overhead.
func (h *UploadHandler) parse(w http.ResponseWriter, r *http.Request, limit int) (*multipart.Form, []uploads.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limit)*uploads.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, apperr.Validation(apperr.CodeFileTooLarge, "Upload too large", nil)
		}
		return nil, nil, apperr.Validation(apperr.CodeNoFiles, "Expected multipart/form-data with an images field", nil)
	}
	form := r.MultipartForm

	headers := form.File[imagesField]
	files := make([]uploads.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			_ = form.RemoveAll()
			return nil, nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		files = append(files, uploads.File{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			Body:         f,
		})
	}
	return form, files, nil
}

func closeAll(files []uploads.File) {
	for _, f := range files {
		if c, ok := f.Body.(multipart.File); ok {
			_ = c.Close()
		}
	}
}

// formCaptions accepts either repeated "captions" fields or indexed
// "captions[i]" fields.
func formCaptions(form *multipart.Form, n int) []string {
	out := make([]string, n)
	repeated := form.Value["captions"]
	if len(repeated) == 0 {
		repeated = form.Value["captions[]"]
	}
	for i := 0; i < n; i++ {
		if i < len(repeated) {
			out[i] = strings.TrimSpace(repeated[i])
		}
		if v := formValue(form, fmt.Sprintf("captions[%d]", i)); v != "" {
			out[i] = v
		}
	}
	return out
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// UploadFileHandler serves GET /uploads/* from root. Directories are not
// listed and every path segment must be a plain file name.
func UploadFileHandler(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if rel == "" {
			http.NotFound(w, r)
			return
		}
		for _, seg := range strings.Split(rel, "/") {
			if uploads.ValidateFilename(seg) != nil {
				http.NotFound(w, r)
				return
			}
		}
		abs := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, abs)
	}
}
