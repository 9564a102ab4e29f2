package components

import (
	"sync"

	"github.com/bububa/deepquery/schema"
)

// Memory manages the conversation history for one session.
// The history is append-only and chronological: turns are never reordered,
// deduplicated or trimmed. The session loop owns and mutates it; flows only
// read a snapshot passed in per call.
// threadsafe
type Memory struct {
	// history is the list of messages representing the conversation so far.
	history []Message
	// turnID is the ID of the current turn.
	turnID string
	// mtx sync lock
	mtx *sync.RWMutex
}

// NewMemory initializes the Memory with an empty history.
func NewMemory() *Memory {
	return &Memory{
		history: make([]Message, 0, 16),
		mtx:     new(sync.RWMutex),
	}
}

// TurnID returns the current turn ID
func (m *Memory) TurnID() string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.turnID
}

// NewTurn initializes a new turn by generating a random turn ID.
func (m *Memory) NewTurn() *Memory {
	m.mtx.Lock()
	m.turnID = NewTurnID()
	m.mtx.Unlock()
	return m
}

// NewMessage appends a message to the conversation history.
func (m *Memory) NewMessage(role MessageRole, content schema.Schema) *Message {
	m.mtx.Lock()
	msg := NewMessage(role, content).SetTurnID(m.turnID)
	m.history = append(m.history, *msg)
	m.mtx.Unlock()
	return msg
}

// History returns a snapshot of the conversation history in insertion order.
func (m *Memory) History() []Message {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	out := make([]Message, len(m.history))
	copy(out, m.history)
	return out
}

// Reset drops the conversation history.
func (m *Memory) Reset() *Memory {
	m.mtx.Lock()
	m.history = m.history[:0]
	m.turnID = ""
	m.mtx.Unlock()
	return m
}

// MessageCount returns the number of messages in the conversation history.
func (m *Memory) MessageCount() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.history)
}
