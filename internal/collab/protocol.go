package collab

import (
	"encoding/json"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	SceneID  string          `json:"sceneId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeDocSync = "doc.sync"
	TypeFrame   = "frame"

	// Operations
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// --- Presence ---

// PresencePayload carries a user's cursor in canonical coordinates and the
// object under it, which the server resolves.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Hover       string     `json:"hover,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	ServerSeq int64  `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Operations ---

// Operation types.
const (
	OpWindowZoom      = "window.zoom"
	OpWindowPan       = "window.pan"
	OpWindowRotate    = "window.rotate"
	OpClipAlgorithm   = "clip.algorithm"
	OpViewRecenter    = "view.recenter"
	OpObjectCreate    = "object.create"
	OpObjectDelete    = "object.delete"
	OpObjectTranslate = "object.translate"
	OpObjectScale     = "object.scale"
	OpObjectRotate    = "object.rotate"
	OpObjectColor     = "object.color"
)

// Operation is one scene or view mutation. Only the fields its Type needs
// are set.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`
	ObjectID  string `json:"objectId,omitempty"`

	// window.zoom
	Step float64 `json:"step,omitempty"`

	// window.pan, object.translate
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`
	DZ float64 `json:"dz,omitempty"`

	// window.rotate, object.rotate around an axis
	Axis    string  `json:"axis,omitempty"`
	Degrees float64 `json:"degrees,omitempty"`

	// clip.algorithm
	Algorithm string `json:"algorithm,omitempty"`

	// object.create
	Object *document.ObjectNode `json:"object,omitempty"`

	// object.scale
	SX float64 `json:"sx,omitempty"`
	SY float64 `json:"sy,omitempty"`
	SZ float64 `json:"sz,omitempty"`

	// object.rotate; Pivot is center, origin, point or axis
	AX    float64          `json:"ax,omitempty"`
	AY    float64          `json:"ay,omitempty"`
	AZ    float64          `json:"az,omitempty"`
	Pivot string           `json:"pivot,omitempty"`
	Point *document.Vertex `json:"point,omitempty"`

	// object.color
	Color string `json:"color,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ObjectID        string `json:"objectId,omitempty"` // set for object.create
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// FramePayload is the rendered scene after an operation.
type FramePayload struct {
	ServerSeq int64                `json:"serverSeq"`
	Window    engine.Window        `json:"window"`
	Algorithm string               `json:"algorithm"`
	Commands  []engine.DrawCommand `json:"commands"`
}
