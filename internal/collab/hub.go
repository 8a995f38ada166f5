package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

const saveTimeout = 10 * time.Second

// SceneStore loads a scene when its room opens and saves it when the last
// client leaves.
type SceneStore interface {
	LoadDocument(ctx context.Context, sceneID string) (*document.Document, error)
	SaveDocument(ctx context.Context, sceneID string, doc *document.Document) error
}

type Room struct {
	sceneID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceTable
	state    *SceneState
}

func NewRoom(sceneID string, state *SceneState) *Room {
	return &Room{
		sceneID:  sceneID,
		clients:  make(map[string]*Client),
		presence: NewPresenceTable(),
		state:    state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sceneID -> room
	register   chan *Client
	unregister chan *Client

	store SceneStore
	opts  engine.Options
	saves sync.WaitGroup
	done  chan struct{}
}

func NewHub(store SceneStore, opts engine.Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      store,
		opts:       opts,
		done:       make(chan struct{}),
	}
}

// Run serves registrations until ctx is done. It then closes every room,
// saving the changed ones, and waits for the saves to finish.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.saves.Wait()
	}()
	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	for _, room := range rooms {
		for _, c := range room.clients {
			c.close()
		}
	}
	h.mu.Unlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Active reports whether a scene has a live room.
func (h *Hub) Active(sceneID string) bool {
	_, ok := h.room(sceneID)
	return ok
}

func (h *Hub) room(sceneID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sceneID]
	return room, ok
}

func (h *Hub) openRoom(ctx context.Context, sceneID string) (*Room, error) {
	if room, ok := h.room(sceneID); ok {
		return room, nil
	}

	doc, err := h.store.LoadDocument(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	state, err := NewSceneState(doc, h.opts)
	if err != nil {
		return nil, err
	}

	room := NewRoom(sceneID, state)
	h.mu.Lock()
	h.rooms[sceneID] = room
	h.mu.Unlock()
	return room, nil
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	room, err := h.openRoom(ctx, client.SceneID)
	if err != nil {
		slog.Warn("open scene room", "scene", client.SceneID, "error", err)
		client.Send(errorMessage("scene unavailable"))
		client.close()
		return
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeWelcome, SceneID: room.sceneID, Payload: welcome})

	doc, _ := json.Marshal(room.state.Document())
	client.Send(&Message{Type: TypeDocSync, SceneID: room.sceneID, Payload: doc})

	frame, _ := json.Marshal(room.state.Frame())
	client.Send(&Message{Type: TypeFrame, SceneID: room.sceneID, Payload: frame})

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SceneID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "scene", client.SceneID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, joined := room.clients[client.ClientID]; !joined {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SceneID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(client.SceneID, &Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "scene", client.SceneID)
}

// saveRoom snapshots a closed room in the background if it changed.
func (h *Hub) saveRoom(room *Room) {
	if !room.state.Dirty() {
		return
	}
	doc := room.state.Document()

	h.saves.Add(1)
	go func() {
		defer h.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := h.store.SaveDocument(ctx, room.sceneID, doc); err != nil {
			slog.Error("save scene", "scene", room.sceneID, "error", err)
			return
		}
		slog.Info("scene saved", "scene", room.sceneID, "objects", len(doc.Objects))
	}()
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	room, ok := h.room(sender.SceneID)
	if !ok {
		return
	}

	presence.DisplayName = sender.DisplayName
	presence.Hover = ""
	if presence.Cursor != nil {
		presence.Hover = room.state.HitTest(presence.Cursor.X, presence.Cursor.Y)
	}

	outPayload, _ := json.Marshal(presence)
	room.presence.Set(sender.UserID, &presence)

	h.broadcastToRoom(sender.SceneID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid operation payload", "error", err)
		sender.Send(errorMessage("invalid operation payload"))
		return
	}
	op := submit.Operation

	room, ok := h.room(sender.SceneID)
	if !ok {
		return
	}

	seq, objectID, frame, err := room.state.ApplyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	if op.Type == OpObjectDelete {
		room.presence.ForgetObject(op.ObjectID)
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ObjectID:        objectID,
		ServerSeq:       seq,
		ServerTimestamp: time.Now().UnixMilli(),
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: seq, Payload: ack})

	if op.Type == OpObjectCreate && op.Object != nil {
		op.Object.ID = objectID
	}
	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	h.broadcastToRoom(sender.SceneID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     seq,
		Payload: broadcast,
	}, sender.ClientID)

	framePayload, _ := json.Marshal(frame)
	h.broadcastToRoom(sender.SceneID, &Message{
		Type:    TypeFrame,
		Seq:     seq,
		Payload: framePayload,
	}, "")
}

func (h *Hub) broadcastToRoom(sceneID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sceneID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
