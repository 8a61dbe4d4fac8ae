package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookmate-backend/internal/storage"
)

// Cover images only — no documents, and a tighter size limit than a
// general-purpose file host would use.
const maxCoverSize = 5 << 20 // 5 MB

var allowedCoverTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// UploadHandler handles book-cover uploads.
// It depends on the storage.Store interface, not a specific implementation.
type UploadHandler struct {
	store    storage.Store
	localDir string
}

// NewUploadHandler creates an UploadHandler with the given storage backend.
// localDir is the on-disk directory ServeFile reads from when the backend
// stores files locally.
func NewUploadHandler(store storage.Store, localDir string) *UploadHandler {
	return &UploadHandler{store: store, localDir: localDir}
}

// Upload handles POST /api/upload with multipart/form-data containing a
// "file" field. Returns cover metadata (url, name, size, type) as JSON.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Enforce size limit before reading body
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize)

	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	// Validate file type by reading the first 512 bytes (MIME sniffing)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	contentType := http.DetectContentType(buffer[:n])

	if !allowedCoverTypes[contentType] {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: JPG, PNG, WEBP.", contentType,
		))
		return
	}

	// Reset file reader to beginning after MIME sniffing
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to process file.")
		return
	}

	// A random prefix prevents collisions and hides original filenames
	safeName := sanitizeFilename(header.Filename)
	storagePath := fmt.Sprintf("covers/%s_%s", uuid.NewString(), safeName)

	info, err := h.store.Save(r.Context(), storagePath, file, contentType)
	if err != nil {
		log.Printf("Upload failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	JSON(w, http.StatusOK, info)
}

// ServeFile serves uploaded covers.
// For S3-backed storage, redirects to the public CDN URL.
// For local storage, serves from disk.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filePath == "" {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}

	if url := h.store.URL(filePath); strings.HasPrefix(url, "https://") {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.localDir, filepath.Clean(filePath)))
}

// sanitizeFilename removes path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("cover_%d", time.Now().Unix())
	}
	return name
}
