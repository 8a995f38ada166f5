// Package asset stores uploaded material libraries that OBJ imports resolve
// their mtllib statements against.
package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/inamate/modeler/internal/objfile"
)

const maxUploadSize = 1 << 20 // 1MB

var ErrInvalidName = errors.New("invalid material library name")

var libraryName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.mtl$`)

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Materials []string `json:"materials"`
}

// Handler serves material library upload and retrieval.
type Handler struct {
	dir string
}

// NewHandler creates a handler that stores libraries in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with a "file" field).
// The library keeps its file name so OBJ files can refer to it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large (max 1MB)")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !libraryName.MatchString(name) {
		writeError(w, http.StatusBadRequest, "file name must look like name.mtl")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	mats, err := objfile.DecodeMaterials(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := os.WriteFile(filepath.Join(h.dir, name), data, 0o644); err != nil {
		slog.Error("write material library", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	resp := UploadResponse{Name: name, URL: "/assets/" + name, Materials: make([]string, 0, len(mats))}
	for m := range mats {
		resp.Materials = append(resp.Materials, m)
	}
	slog.Info("material library stored", "name", name, "materials", len(mats))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler for GET /assets/{name}.
func (h *Handler) Serve() http.Handler {
	files := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	}))
}

// Open opens a stored library. It satisfies objfile.MaterialLoader.
func (h *Handler) Open(name string) (io.ReadCloser, error) {
	if !libraryName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return os.Open(filepath.Join(h.dir, name))
}

// Delete handles DELETE /assets/{name}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !libraryName.MatchString(name) {
		writeError(w, http.StatusBadRequest, ErrInvalidName.Error())
		return
	}
	if err := os.Remove(filepath.Join(h.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		slog.Error("delete material library", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
