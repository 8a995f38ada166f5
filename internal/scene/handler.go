package scene

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
)

const maxImportSize = 16 << 20 // 16MB

// Sessions reports scenes that are open in the collaboration hub.
type Sessions interface {
	Active(sceneID string) bool
}

type Handler struct {
	service  *Service
	sessions Sessions
}

func NewHandler(service *Service, sessions Sessions) *Handler {
	return &Handler{service: service, sessions: sessions}
}

type createRequest struct {
	Name   string `json:"name"`
	Sample bool   `json:"sample"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sc, err := h.service.Create(r.Context(), req.Name, req.Sample)
	if err != nil {
		slog.Error("create scene failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("list scenes failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, scenes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sc, err := h.service.Get(r.Context(), mux.Vars(r)["sceneId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

// Document serves the latest snapshot as JSON.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.LoadDocument(r.Context(), mux.Vars(r)["sceneId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	if h.busy(sceneID) {
		handleServiceError(w, ErrBusy)
		return
	}

	if err := h.service.Delete(r.Context(), sceneID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import reads an OBJ request body into the scene. ?mode=append keeps the
// existing objects.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	if h.busy(sceneID) {
		handleServiceError(w, ErrBusy)
		return
	}

	mode, err := ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportSize)
	doc, err := h.service.Import(r.Context(), sceneID, body, mode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("scene imported", "scene", sceneID, "objects", len(doc.Objects))
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) busy(sceneID string) bool {
	return h.sessions != nil && h.sessions.Active(sceneID)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var perr *objfile.ParseError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": perr.Err.Error(),
			"line":  perr.Line,
			"unit":  perr.Unit,
		})
	case errors.Is(err, engine.ErrInvalidControlCount),
		errors.Is(err, engine.ErrDuplicateID),
		errors.Is(err, engine.ErrZoomLimitExceeded),
		errors.Is(err, document.ErrDuplicateName),
		errors.Is(err, document.ErrEmptyName):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
