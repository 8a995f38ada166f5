// Package store persists scenes and their document snapshots in Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/modeler/internal/typeid"
)

var ErrNotFound = errors.New("not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scenes (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS scene_snapshots (
		id         TEXT PRIMARY KEY,
		scene_id   TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		version    INTEGER NOT NULL,
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (scene_id, version)
	)`,
}

type Scene struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Snapshot struct {
	ID        string          `json:"id"`
	SceneID   string          `json:"sceneId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateScene(ctx context.Context, id, name string) (*Scene, error) {
	var sc Scene
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scenes (id, name) VALUES ($1, $2)
		 RETURNING id, name, created_at, updated_at`,
		id, name,
	).Scan(&sc.ID, &sc.Name, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	return &sc, nil
}

func (s *Store) ListScenes(ctx context.Context) ([]Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM scenes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	scenes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Scene, error) {
		var sc Scene
		err := row.Scan(&sc.ID, &sc.Name, &sc.CreatedAt, &sc.UpdatedAt)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return scenes, nil
}

func (s *Store) GetScene(ctx context.Context, id string) (*Scene, error) {
	var sc Scene
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM scenes WHERE id = $1`, id,
	).Scan(&sc.ID, &sc.Name, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scene %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return &sc, nil
}

// DeleteScene removes a scene and, by cascade, its snapshots.
func (s *Store) DeleteScene(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveSnapshot stores doc as the next version of a scene and touches the
// scene's updated_at.
func (s *Store) SaveSnapshot(ctx context.Context, sceneID string, doc json.RawMessage) (*Snapshot, error) {
	var snap Snapshot
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE scenes SET updated_at = now() WHERE id = $1`, sceneID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("scene %s: %w", sceneID, ErrNotFound)
		}

		return tx.QueryRow(ctx,
			`INSERT INTO scene_snapshots (id, scene_id, version, document)
			 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
			 FROM scene_snapshots WHERE scene_id = $2
			 RETURNING id, scene_id, version, document, created_at`,
			typeid.NewSnapshotID(), sceneID, doc,
		).Scan(&snap.ID, &snap.SceneID, &snap.Version, &snap.Document, &snap.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, scene_id, version, document, created_at
		 FROM scene_snapshots WHERE scene_id = $1
		 ORDER BY version DESC LIMIT 1`, sceneID,
	).Scan(&snap.ID, &snap.SceneID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("snapshot for %s: %w", sceneID, ErrNotFound)
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &snap, nil
}
