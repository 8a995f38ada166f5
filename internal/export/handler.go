package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
	"github.com/inamate/modeler/internal/preview"
	"github.com/inamate/modeler/internal/store"
)

const (
	minPreviewSize = 16
	maxPreviewSize = 4096
)

// Documents loads the latest document of a scene.
type Documents interface {
	LoadDocument(ctx context.Context, sceneID string) (*document.Document, error)
}

type Handler struct {
	docs Documents
	opts engine.Options
}

func NewHandler(docs Documents, opts engine.Options) *Handler {
	return &Handler{docs: docs, opts: opts}
}

// Export handles GET /api/scenes/{sceneId}/export?format=obj|mtl|json.
// OBJ output references a material library of the same name.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "obj"
	}
	if format != "obj" && format != "mtl" && format != "json" {
		writeError(w, http.StatusBadRequest, "invalid format: must be obj, mtl, or json")
		return
	}

	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	name := fileName(doc.Scene.Name)

	var buf bytes.Buffer
	var contentType string
	var err error
	switch format {
	case "obj":
		contentType = "model/obj"
		enc := objfile.NewEncoder(&buf)
		enc.SetMaterialLibrary(name + ".mtl")
		err = enc.Encode(doc.Objects)
	case "mtl":
		contentType = "model/mtl"
		err = objfile.EncodeMaterials(&buf, doc.Objects)
	case "json":
		contentType = "application/json"
		err = json.NewEncoder(&buf).Encode(doc)
	}
	if err != nil {
		slog.Error("export failed", "scene", doc.Scene.ID, "format", format, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	slog.Info("export complete", "scene", doc.Scene.ID, "format", format, "size", buf.Len())
}

// Preview handles GET /api/scenes/{sceneId}/preview.png. The scene is
// drawn through its saved view; width, height and labels are optional.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	opts := preview.DefaultOptions()
	opts.Width = int(h.opts.ViewportWidth)
	opts.Height = int(h.opts.ViewportHeight)

	q := r.URL.Query()
	for key, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < minPreviewSize || n > maxPreviewSize {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be between %d and %d", key, minPreviewSize, maxPreviewSize))
			return
		}
		*dst = n
	}
	opts.Labels = q.Get("labels") == "true"

	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	eng := engine.NewEngine(h.opts)
	if err := eng.LoadDocument(doc); err != nil {
		slog.Error("preview load failed", "scene", doc.Scene.ID, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, eng.DrawCommands(), opts); err != nil {
		slog.Error("encode preview", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	sceneID := mux.Vars(r)["sceneId"]
	doc, err := h.docs.LoadDocument(r.Context(), sceneID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return nil, false
		}
		slog.Error("load scene", "scene", sceneID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return doc, true
}

// fileName keeps letters, digits, dash and underscore.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	if name == "" {
		return "scene"
	}
	return name
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
