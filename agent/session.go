// Package agent provides the orchestration loop that connects the LLM to
// tools: per-turn tool selection, invocation normalization, a confirmation
// handshake for ask mode, and a bounded execution loop.
package agent

import (
	"encoding/json"
	"log"
	"sync"

	"happybot/llm"
)

// markerName tags the transient system message holding a deferred action
// awaiting user confirmation.
const markerName = "pending_action"

// defaultWindow is how many transcript messages a session retains.
const defaultWindow = 10

// PendingAction is a deferred capability invocation awaiting a yes/no
// reply. Turns counts the ambiguous replies seen while pending; the marker
// expires once it exceeds maxPendingTurns.
type PendingAction struct {
	Tool  string         `json:"tool"`
	Args  map[string]any `json:"args"`
	Turns int            `json:"turns"`
}

const maxPendingTurns = 3

// Session is the conversational state for one chat. The transcript is
// owned by the orchestrator: one turn is processed to completion before
// the next is accepted (callers hold mu for the whole turn).
type Session struct {
	ID int64

	mu      sync.Mutex
	history []llm.Message
	window  int
}

// NewSession creates a session with the default rolling window.
func NewSession(id int64) *Session {
	return &Session{ID: id, window: defaultWindow}
}

// Lock serializes turn processing for this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds a message and trims the rolling window. The confirmation
// marker is never trimmed away; only ordinary messages age out.
func (s *Session) Append(msg llm.Message) {
	s.history = append(s.history, msg)
	s.trim()
}

func (s *Session) trim() {
	var marker *llm.Message
	msgs := make([]llm.Message, 0, len(s.history))
	for i := range s.history {
		if isMarker(s.history[i]) {
			m := s.history[i]
			marker = &m
			continue
		}
		msgs = append(msgs, s.history[i])
	}

	if len(msgs) > s.window {
		msgs = msgs[len(msgs)-s.window:]
	}
	// Never let the window open on a tool result whose requesting
	// assistant message aged out.
	for len(msgs) > 0 && msgs[0].Role == llm.RoleTool {
		msgs = msgs[1:]
	}

	if marker != nil {
		msgs = append(msgs, *marker)
	}
	s.history = msgs
}

// History returns a copy of the transcript, marker included.
func (s *Session) History() []llm.Message {
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// ModelMessages returns the transcript as sent to the model: the internal
// confirmation marker is withheld, and so is any tool result whose
// requesting assistant message is no longer in the window (providers
// reject uncorrelated tool messages).
func (s *Session) ModelMessages() []llm.Message {
	known := make(map[string]bool)
	out := make([]llm.Message, 0, len(s.history))
	for _, m := range s.history {
		if isMarker(m) {
			continue
		}
		if m.Role == llm.RoleTool && !known[m.ToolCallID] {
			continue
		}
		for _, tc := range m.ToolCalls {
			known[tc.ID] = true
		}
		out = append(out, m)
	}
	return out
}

// LastContent returns the most recent non-empty message content, or ""
// when the transcript has none.
func (s *Session) LastContent() string {
	for i := len(s.history) - 1; i >= 0; i-- {
		if isMarker(s.history[i]) {
			continue
		}
		if s.history[i].Content != "" {
			return s.history[i].Content
		}
	}
	return ""
}

// InstallMarker records a pending action. At most one marker exists per
// session; installing while one pends is a no-op and returns false.
func (s *Session) InstallMarker(action PendingAction) bool {
	if _, ok := s.Marker(); ok {
		return false
	}
	payload, err := json.Marshal(action)
	if err != nil {
		log.Printf("[session %d] marshal pending action: %v", s.ID, err)
		return false
	}
	s.history = append(s.history, llm.Message{
		Role:    llm.RoleSystem,
		Name:    markerName,
		Content: string(payload),
	})
	return true
}

// Marker returns the pending action, if any.
func (s *Session) Marker() (PendingAction, bool) {
	for _, m := range s.history {
		if !isMarker(m) {
			continue
		}
		var action PendingAction
		if err := json.Unmarshal([]byte(m.Content), &action); err != nil {
			log.Printf("[session %d] corrupt marker dropped: %v", s.ID, err)
			s.RemoveMarker()
			return PendingAction{}, false
		}
		return action, true
	}
	return PendingAction{}, false
}

// RemoveMarker consumes the pending action.
func (s *Session) RemoveMarker() {
	out := s.history[:0]
	for _, m := range s.history {
		if isMarker(m) {
			continue
		}
		out = append(out, m)
	}
	s.history = out
}

// BumpMarker increments the ambiguous-turn counter on the pending action
// and expires the marker once it exceeds the limit. Returns false when the
// marker expired.
func (s *Session) BumpMarker() bool {
	action, ok := s.Marker()
	if !ok {
		return false
	}
	action.Turns++
	if action.Turns > maxPendingTurns {
		log.Printf("[session %d] pending %s expired after %d ambiguous turns", s.ID, action.Tool, action.Turns-1)
		s.RemoveMarker()
		return false
	}
	s.RemoveMarker()
	s.InstallMarker(action)
	return true
}

func isMarker(m llm.Message) bool {
	return m.Role == llm.RoleSystem && m.Name == markerName
}

// Sessions is the session store keyed by chat identity. Sessions are
// created on first use and share nothing but the immutable registry, so
// distinct chats process turns fully in parallel.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Get returns the session for id, creating it on first use.
func (st *Sessions) Get(id int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		s = NewSession(id)
		st.sessions[id] = s
	}
	return s
}
