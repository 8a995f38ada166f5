package export

import (
	"context"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
	"github.com/inamate/modeler/internal/store"
)

type docMap map[string]*document.Document

func (m docMap) LoadDocument(_ context.Context, id string) (*document.Document, error) {
	doc, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", id, store.ErrNotFound)
	}
	return doc, nil
}

func newTestRouter() *mux.Router {
	doc := document.NewSampleDocument("scene_demo")
	doc.Scene.Name = "Demo Scene"
	h := NewHandler(docMap{"scene_demo": doc}, engine.DefaultOptions())

	r := mux.NewRouter()
	r.HandleFunc("/api/scenes/{sceneId}/export", h.Export).Methods("GET")
	r.HandleFunc("/api/scenes/{sceneId}/preview.png", h.Preview).Methods("GET")
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestExportOBJ(t *testing.T) {
	rec := get(newTestRouter(), "/api/scenes/scene_demo/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="Demo-Scene.obj"`) {
		t.Errorf("disposition = %q", got)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "mtllib Demo-Scene.mtl\n") {
		t.Errorf("missing mtllib:\n%s", body)
	}

	objs, err := objfile.DecodeString(body, objfile.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != len(document.NewSampleDocument("x").Objects) {
		t.Errorf("exported %d objects", len(objs))
	}
}

func TestExportFormats(t *testing.T) {
	r := newTestRouter()
	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/api/scenes/scene_demo/export?format=mtl", http.StatusOK, "model/mtl"},
		{"/api/scenes/scene_demo/export?format=json", http.StatusOK, "application/json"},
		{"/api/scenes/scene_demo/export?format=stl", http.StatusBadRequest, "application/json"},
		{"/api/scenes/scene_missing/export", http.StatusNotFound, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(r, tt.path)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("content type = %q, want %q", got, tt.contentType)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	r := newTestRouter()

	rec := get(r, "/api/scenes/scene_demo/preview.png?width=320&height=200&labels=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("size = %v", b)
	}

	for _, q := range []string{"width=4", "height=99999", "width=abc"} {
		if rec := get(r, "/api/scenes/scene_demo/preview.png?"+q); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}
