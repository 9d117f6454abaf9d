// Package session provides per-conversation state with defined lifecycle.
//
// A Session is created on first access of an unseen identifier, mutated by
// every message or invocation outcome, and evicted after an inactivity TTL
// or an explicit clear. Messages are immutable once appended; corrections
// are new messages.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/tools"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// InvocationState is the dispatcher state machine position of an invocation.
type InvocationState string

const (
	StateCollecting           InvocationState = "collecting"
	StateAwaitingConfirmation InvocationState = "awaiting-confirmation"
	StateExecuting            InvocationState = "executing"
	StateSucceeded            InvocationState = "succeeded"
	StateFailed               InvocationState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s InvocationState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Invocation is the result record of one tool dispatch. Immutable once its
// state is terminal; attached to the message reporting it.
type Invocation struct {
	ID         string          `json:"id"`
	Tool       string          `json:"tool"`
	Args       tools.Args      `json:"args"`
	State      InvocationState `json:"state"`
	Result     *tools.Result   `json:"result,omitempty"`
	FailReason string          `json:"failReason,omitempty"`
}

// Part is one segment of a message: plain text or an invocation reference.
type Part struct {
	Text       string      `json:"text,omitempty"`
	Invocation *Invocation `json:"invocation,omitempty"`
}

// Message is one immutable entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Parts     []Part    `json:"parts,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage creates a message with a fresh identifier and timestamp.
func NewMessage(role Role, content string, parts ...Part) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Parts:     parts,
		CreatedAt: time.Now().UTC(),
	}
}

// Pending is an in-flight invocation: arguments gathered so far, the required
// fields still missing, and whether the user has been asked to confirm.
// At most one exists per session.
type Pending struct {
	Tool       string     `json:"tool"`
	Args       tools.Args `json:"args"`
	Missing    []string   `json:"missing,omitempty"`
	Confirming bool       `json:"confirming"`
}

// Session is one conversation's accumulated state.
type Session struct {
	ID         string
	Messages   []Message
	Pending    *Pending
	CreatedAt  time.Time
	LastActive time.Time
}

// Append adds a message to the history and refreshes the activity timestamp.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.LastActive = time.Now().UTC()
}

// History returns a copy of the message sequence in append order.
func (s *Session) History() []Message {
	copied := make([]Message, len(s.Messages))
	copy(copied, s.Messages)
	return copied
}
