package scene

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

type fakeSessions map[string]bool

func (f fakeSessions) Active(id string) bool { return f[id] }

func newTestRouter(sessions Sessions) (*mux.Router, *Service) {
	svc, _ := newTestService()
	h := NewHandler(svc, sessions)

	r := mux.NewRouter()
	r.HandleFunc("/api/scenes", h.List).Methods("GET")
	r.HandleFunc("/api/scenes", h.Create).Methods("POST")
	r.HandleFunc("/api/scenes/{sceneId}", h.Get).Methods("GET")
	r.HandleFunc("/api/scenes/{sceneId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/api/scenes/{sceneId}/document", h.Document).Methods("GET")
	r.HandleFunc("/api/scenes/{sceneId}/import", h.Import).Methods("POST")
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlerCreateAndImport(t *testing.T) {
	r, _ := newTestRouter(nil)

	rec := do(r, "POST", "/api/scenes", `{"name":"demo"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var sc Scene
	if err := json.NewDecoder(rec.Body).Decode(&sc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"get", "GET", "/api/scenes/" + sc.ID, "", http.StatusOK},
		{"get missing", "GET", "/api/scenes/scene_missing", "", http.StatusNotFound},
		{"create without name", "POST", "/api/scenes", `{"name":" "}`, http.StatusBadRequest},
		{"import", "POST", "/api/scenes/" + sc.ID + "/import", squareOBJ, http.StatusOK},
		{"import bad mode", "POST", "/api/scenes/" + sc.ID + "/import?mode=merge", squareOBJ, http.StatusBadRequest},
		{"import duplicate", "POST", "/api/scenes/" + sc.ID + "/import?mode=append", squareOBJ, http.StatusUnprocessableEntity},
		{"import bad obj", "POST", "/api/scenes/" + sc.ID + "/import", "v 0 0 0\ncurv 0 1 1 1 1 1\n", http.StatusUnprocessableEntity},
		{"document", "GET", "/api/scenes/" + sc.ID + "/document", "", http.StatusOK},
		{"list", "GET", "/api/scenes", "", http.StatusOK},
		{"delete", "DELETE", "/api/scenes/" + sc.ID, "", http.StatusNoContent},
		{"delete again", "DELETE", "/api/scenes/" + sc.ID, "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestHandlerParseErrorBody(t *testing.T) {
	r, svc := newTestRouter(nil)
	sc, err := svc.Create(t.Context(), "demo", false)
	if err != nil {
		t.Fatal(err)
	}

	rec := do(r, "POST", "/api/scenes/"+sc.ID+"/import", "v 0 0 0\n\np 0\n")
	var body struct {
		Error string `json:"error"`
		Line  int    `json:"line"`
		Unit  string `json:"unit"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Line != 3 || body.Unit != "p" {
		t.Errorf("body = %+v, want line 3 unit p", body)
	}
}

func TestHandlerLiveSceneIsLocked(t *testing.T) {
	r, svc := newTestRouter(nil)
	sc, err := svc.Create(t.Context(), "demo", false)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc, fakeSessions{sc.ID: true})
	r.HandleFunc("/live/{sceneId}/import", h.Import).Methods("POST")
	r.HandleFunc("/live/{sceneId}", h.Delete).Methods("DELETE")

	if rec := do(r, "POST", "/live/"+sc.ID+"/import", squareOBJ); rec.Code != http.StatusConflict {
		t.Errorf("import status = %d, want 409", rec.Code)
	}
	if rec := do(r, "DELETE", "/live/"+sc.ID, ""); rec.Code != http.StatusConflict {
		t.Errorf("delete status = %d, want 409", rec.Code)
	}
}
