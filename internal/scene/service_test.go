package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
	"github.com/inamate/modeler/internal/store"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu        sync.Mutex
	scenes    map[string]store.Scene
	snapshots map[string][]store.Snapshot
}

func newMemRepo() *memRepo {
	return &memRepo{
		scenes:    make(map[string]store.Scene),
		snapshots: make(map[string][]store.Snapshot),
	}
}

func (m *memRepo) CreateScene(_ context.Context, id, name string) (*store.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := store.Scene{ID: id, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.scenes[id] = sc
	return &sc, nil
}

func (m *memRepo) ListScenes(context.Context) ([]store.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Scene
	for _, sc := range m.scenes {
		out = append(out, sc)
	}
	slices.SortFunc(out, func(a, b store.Scene) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memRepo) GetScene(_ context.Context, id string) (*store.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenes[id]
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", id, store.ErrNotFound)
	}
	return &sc, nil
}

func (m *memRepo) DeleteScene(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.scenes, id)
	delete(m.snapshots, id)
	return nil
}

func (m *memRepo) SaveSnapshot(_ context.Context, sceneID string, doc json.RawMessage) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[sceneID]; !ok {
		return nil, store.ErrNotFound
	}
	snap := store.Snapshot{
		ID:       fmt.Sprintf("snap_%d", len(m.snapshots[sceneID])+1),
		SceneID:  sceneID,
		Version:  len(m.snapshots[sceneID]) + 1,
		Document: slices.Clone(doc),
	}
	m.snapshots[sceneID] = append(m.snapshots[sceneID], snap)
	return &snap, nil
}

func (m *memRepo) LatestSnapshot(_ context.Context, sceneID string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[sceneID]
	if len(snaps) == 0 {
		return nil, store.ErrNotFound
	}
	return &snaps[len(snaps)-1], nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, engine.DefaultOptions(), nil), repo
}

const squareOBJ = "v 0 0 0\nv 50 0 0\nv 50 50 0\nv 0 50 0\no square\nl 1 2 3 4\n"

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sc, err := svc.Create(ctx, "demo", true)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Version != 1 || sc.Objects == 0 {
		t.Errorf("created = %+v", sc)
	}

	got, err := svc.Get(ctx, sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "demo" || got.Objects != sc.Objects {
		t.Errorf("get = %+v, want %+v", got, sc)
	}

	empty, err := svc.Create(ctx, "blank", false)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Objects != 0 {
		t.Errorf("blank scene has %d objects", empty.Objects)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %v, %v", list, err)
	}

	if _, err := svc.Get(ctx, "scene_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing scene: err = %v", err)
	}
}

func TestImport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sc, err := svc.Create(ctx, "demo", true)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Import(ctx, sc.ID, strings.NewReader(squareOBJ), ImportReplace)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Objects) != 1 || doc.Objects[0].Name != "square" || doc.Objects[0].ID == "" {
		t.Fatalf("objects = %+v", doc.Objects)
	}
	if doc.Scene.Version != 2 {
		t.Errorf("version = %d, want 2", doc.Scene.Version)
	}

	appended, err := svc.Import(ctx, sc.ID, strings.NewReader("v 0 0 0\no dot\np 1\n"), ImportAppend)
	if err != nil {
		t.Fatal(err)
	}
	if len(appended.Objects) != 2 {
		t.Errorf("after append: %d objects, want 2", len(appended.Objects))
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sc, err := svc.Create(ctx, "demo", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Import(ctx, sc.ID, strings.NewReader(squareOBJ), ImportReplace); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		mode  ImportMode
		check func(error) bool
	}{
		{"bad index", "v 0 0 0\np 7\n", ImportReplace, func(err error) bool {
			var perr *objfile.ParseError
			return errors.As(err, &perr) && perr.Line == 2
		}},
		{"duplicate name", squareOBJ, ImportAppend, func(err error) bool {
			return errors.Is(err, document.ErrDuplicateName)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(ctx, sc.ID, strings.NewReader(tt.input), tt.mode)
			if !tt.check(err) {
				t.Fatalf("unexpected err %v", err)
			}
			doc, err := svc.LoadDocument(ctx, sc.ID)
			if err != nil {
				t.Fatal(err)
			}
			if doc.Scene.Version != 2 || len(doc.Objects) != 1 {
				t.Errorf("scene changed: version %d, %d objects", doc.Scene.Version, len(doc.Objects))
			}
		})
	}
}

func TestSaveDocumentKeepsView(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sc, _ := svc.Create(ctx, "demo", true)

	doc, err := svc.LoadDocument(ctx, sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.NewEngine(engine.DefaultOptions())
	if err := eng.LoadDocument(doc); err != nil {
		t.Fatal(err)
	}
	eng.ApplyWindowRotate(engine.AxisZ, 30)
	if err := svc.SaveDocument(ctx, sc.ID, eng.Document()); err != nil {
		t.Fatal(err)
	}

	back, err := svc.LoadDocument(ctx, sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if back.Scene.View == nil || back.Scene.View.AngleZ != 30 {
		t.Errorf("view = %+v", back.Scene.View)
	}
	if back.Scene.Version != 2 {
		t.Errorf("version = %d, want 2", back.Scene.Version)
	}
}
