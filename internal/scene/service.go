// Package scene manages stored scenes: creation, listing, OBJ import and
// the document snapshots the collaboration hub loads and saves.
package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
	"github.com/inamate/modeler/internal/store"
	"github.com/inamate/modeler/internal/typeid"
)

var (
	ErrNotFound = store.ErrNotFound
	ErrBusy     = errors.New("scene is open in a live session")
)

// Repository is the persistence the service needs; *store.Store
// implements it.
type Repository interface {
	CreateScene(ctx context.Context, id, name string) (*store.Scene, error)
	ListScenes(ctx context.Context) ([]store.Scene, error)
	GetScene(ctx context.Context, id string) (*store.Scene, error)
	DeleteScene(ctx context.Context, id string) error
	SaveSnapshot(ctx context.Context, sceneID string, doc json.RawMessage) (*store.Snapshot, error)
	LatestSnapshot(ctx context.Context, sceneID string) (*store.Snapshot, error)
}

// ImportMode selects whether imported objects replace the scene or join it.
type ImportMode int

const (
	ImportReplace ImportMode = iota
	ImportAppend
)

func ParseImportMode(s string) (ImportMode, error) {
	switch s {
	case "", "replace":
		return ImportReplace, nil
	case "append":
		return ImportAppend, nil
	}
	return 0, fmt.Errorf("unknown import mode %q", s)
}

type Service struct {
	repo      Repository
	opts      engine.Options
	materials objfile.MaterialLoader
	now       func() time.Time
}

// NewService creates a service. materials resolves mtllib directives in
// imported OBJ files and may be nil.
func NewService(repo Repository, opts engine.Options, materials objfile.MaterialLoader) *Service {
	return &Service{repo: repo, opts: opts, materials: materials, now: time.Now}
}

type Scene struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version,omitempty"`
	Objects   int    `json:"objects,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create stores a new scene with its first snapshot, either empty or
// seeded with the demo objects.
func (s *Service) Create(ctx context.Context, name string, sample bool) (*Scene, error) {
	id := typeid.NewSceneID()
	sc, err := s.repo.CreateScene(ctx, id, name)
	if err != nil {
		return nil, err
	}

	var doc *document.Document
	if sample {
		doc = document.NewSampleDocument(id)
		doc.Scene.Name = name
	} else {
		doc = document.NewEmptyDocument(id, name)
	}
	stamp := s.now().UTC().Format(time.RFC3339)
	doc.Scene.CreatedAt = stamp

	snap, err := s.save(ctx, id, doc)
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	out := toScene(sc)
	out.Version = snap.Version
	out.Objects = len(doc.Objects)
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]Scene, error) {
	rows, err := s.repo.ListScenes(ctx)
	if err != nil {
		return nil, err
	}
	scenes := make([]Scene, len(rows))
	for i := range rows {
		scenes[i] = *toScene(&rows[i])
	}
	return scenes, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Scene, error) {
	sc, err := s.repo.GetScene(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toScene(sc)
	out.Version = doc.Scene.Version
	out.Objects = len(doc.Objects)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteScene(ctx, id)
}

// LoadDocument returns the latest snapshot of a scene.
func (s *Service) LoadDocument(ctx context.Context, id string) (*document.Document, error) {
	snap, err := s.repo.LatestSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	var doc document.Document
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	doc.Scene.ID = id
	doc.Scene.Version = snap.Version
	return &doc, nil
}

// SaveDocument stores doc as the scene's next snapshot.
func (s *Service) SaveDocument(ctx context.Context, id string, doc *document.Document) error {
	_, err := s.save(ctx, id, doc)
	return err
}

func (s *Service) save(ctx context.Context, id string, doc *document.Document) (*store.Snapshot, error) {
	doc.Scene.ID = id
	doc.Scene.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	snap, err := s.repo.SaveSnapshot(ctx, id, data)
	if err != nil {
		return nil, err
	}
	doc.Scene.Version = snap.Version
	return snap, nil
}

// Import reads OBJ text into a scene. Either every object is read and
// builds, or the scene is left as it was.
func (s *Service) Import(ctx context.Context, id string, r io.Reader, mode ImportMode) (*document.Document, error) {
	doc, err := s.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	objs, err := objfile.Decode(r, objfile.Options{Materials: s.materials})
	if err != nil {
		return nil, err
	}
	for i := range objs {
		objs[i].ID = typeid.NewObjectID()
	}

	if mode == ImportReplace {
		doc.Objects = objs
	} else {
		doc.Objects = append(doc.Objects, objs...)
	}

	if err := engine.NewEngine(s.opts).LoadDocument(doc); err != nil {
		return nil, err
	}
	if _, err := s.save(ctx, id, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func toScene(sc *store.Scene) *Scene {
	return &Scene{
		ID:        sc.ID,
		Name:      sc.Name,
		CreatedAt: sc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: sc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
