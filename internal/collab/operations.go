package collab

import (
	"errors"
	"fmt"
	"sync"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

var ErrUnknownOperation = errors.New("unknown operation type")

// SceneState holds the authoritative engine for a room. Every operation is
// applied under one lock, so clients observe the same order.
type SceneState struct {
	mu        sync.Mutex
	eng       *engine.Engine
	serverSeq int64
	opLog     []Operation
}

// NewSceneState loads doc into a fresh engine. A nil doc starts an empty
// scene.
func NewSceneState(doc *document.Document, opts engine.Options) (*SceneState, error) {
	eng := engine.NewEngine(opts)
	if doc != nil {
		if err := eng.LoadDocument(doc); err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
	}
	return &SceneState{eng: eng}, nil
}

// ServerSeq returns the number of operations applied so far.
func (s *SceneState) ServerSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverSeq
}

// Dirty reports whether any operation has been applied since load.
func (s *SceneState) Dirty() bool {
	return s.ServerSeq() > 0
}

// Document snapshots the scene, view included.
func (s *SceneState) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Document()
}

// Frame returns the current draw commands.
func (s *SceneState) Frame() FramePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *SceneState) frameLocked() FramePayload {
	return FramePayload{
		ServerSeq: s.serverSeq,
		Window:    s.eng.Window(),
		Algorithm: s.eng.LineClipAlgorithm().String(),
		Commands:  s.eng.DrawCommands(),
	}
}

// HitTest returns the object under a canonical point, or "".
func (s *SceneState) HitTest(x, y float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.HitTest(x, y)
}

// ApplyOperation applies op and returns the new server sequence, the ID of
// a created object and the frame after the change. A rejected operation
// leaves the sequence unchanged.
func (s *SceneState) ApplyOperation(op Operation) (seq int64, objectID string, frame FramePayload, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objectID, err = s.applyLocked(op)
	if err != nil {
		return 0, "", FramePayload{}, err
	}

	s.serverSeq++
	s.opLog = append(s.opLog, op)
	return s.serverSeq, objectID, s.frameLocked(), nil
}

func (s *SceneState) applyLocked(op Operation) (string, error) {
	switch op.Type {
	case OpWindowZoom:
		return "", s.eng.ApplyWindowZoom(op.Step)
	case OpWindowPan:
		s.eng.ApplyWindowPan(op.DX, op.DY, op.DZ)
		return "", nil
	case OpWindowRotate:
		axis, err := engine.ParseAxis(op.Axis)
		if err != nil {
			return "", err
		}
		s.eng.ApplyWindowRotate(axis, op.Degrees)
		return "", nil
	case OpClipAlgorithm:
		alg, err := engine.ParseLineClipAlgorithm(op.Algorithm)
		if err != nil {
			return "", err
		}
		s.eng.SetLineClipAlgorithm(alg)
		return "", nil
	case OpViewRecenter:
		return "", s.eng.RecenterOn(op.ObjectID)
	case OpObjectCreate:
		if op.Object == nil {
			return "", errors.New("object.create requires an object")
		}
		p, err := s.eng.AddObject(*op.Object)
		if err != nil {
			return "", err
		}
		return p.ID, nil
	case OpObjectDelete:
		return "", s.eng.Remove(op.ObjectID)
	case OpObjectTranslate:
		return "", s.eng.TranslateObject(op.ObjectID, op.DX, op.DY, op.DZ)
	case OpObjectScale:
		return "", s.eng.ScaleObject(op.ObjectID, op.SX, op.SY, op.SZ)
	case OpObjectRotate:
		return "", s.applyRotate(op)
	case OpObjectColor:
		if op.Color != "" {
			if _, ok := document.ParseColor(op.Color); !ok {
				return "", fmt.Errorf("invalid color %q", op.Color)
			}
		}
		return "", s.eng.SetObjectColor(op.ObjectID, op.Color)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (s *SceneState) applyRotate(op Operation) error {
	var point engine.Coordinate
	if op.Point != nil {
		point = engine.Pt(op.Point[0], op.Point[1], op.Point[2])
	}
	if op.Pivot == "axis" {
		if op.Point == nil {
			return errors.New("axis rotation requires a point")
		}
		return s.eng.RotateObjectAroundAxis(op.ObjectID, op.Degrees, point)
	}

	mode, err := engine.ParsePivotMode(op.Pivot)
	if err != nil {
		return err
	}
	if mode == engine.PivotPoint && op.Point == nil {
		return errors.New("point rotation requires a point")
	}
	return s.eng.RotateObject(op.ObjectID, op.AX, op.AY, op.AZ, mode, point)
}
