package collab

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

// PresenceTable tracks cursors per user in one room.
type PresenceTable struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		presences: make(map[string]*PresencePayload),
	}
}

func (pt *PresenceTable) Set(userID string, p *PresencePayload) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.presences[userID] = p
}

func (pt *PresenceTable) Remove(userID string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.presences, userID)
}

// ForgetObject drops id from every selection and hover, after the object
// is deleted.
func (pt *PresenceTable) ForgetObject(id string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for _, p := range pt.presences {
		if p.Hover == id {
			p.Hover = ""
		}
		kept := p.Selection[:0]
		for _, sel := range p.Selection {
			if sel != id {
				kept = append(kept, sel)
			}
		}
		p.Selection = kept
	}
}

func (pt *PresenceTable) Snapshot() map[string]*PresencePayload {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	out := make(map[string]*PresencePayload, len(pt.presences))
	for userID, p := range pt.presences {
		cp := *p
		cp.Selection = slices.Clone(p.Selection)
		out[userID] = &cp
	}
	return out
}

func (pt *PresenceTable) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pt.Snapshot()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
