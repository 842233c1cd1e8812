package answer

import "time"

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a Turn stamped with the current time.
func NewTurn(role, text string) Turn {
	return Turn{Role: role, Text: text, Timestamp: time.Now().UTC()}
}

// History is a bounded conversation transcript, oldest turn first. It
// has value semantics: Append returns a new History and never mutates
// the receiver, so callers can safely share and retry with a prior
// state. The caller owns the history; the server keeps no per-session
// state.
type History []Turn

// Append returns a new History with t added, evicting the oldest turns
// beyond maxTurns. maxTurns <= 0 means unbounded.
func (h History) Append(t Turn, maxTurns int) History {
	out := make(History, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, t)
	if maxTurns > 0 && len(out) > maxTurns {
		out = out[len(out)-maxTurns:]
	}
	return out
}

// Clamp returns the last maxTurns turns. Callers apply it to untrusted
// incoming histories so an oversized transcript cannot inflate the
// condensation prompt. maxTurns <= 0 means unbounded.
func (h History) Clamp(maxTurns int) History {
	if maxTurns <= 0 || len(h) <= maxTurns {
		return h
	}
	return h[len(h)-maxTurns:]
}
