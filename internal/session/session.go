// Package session tracks per-connection conversation state: the transcript
// sent to the model, the submission record being filled in, and submission
// status.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/pkg/anthropic"
)

// Session holds the conversation state for one connected client. A session
// processes at most one turn at a time; callers hold the turn lock via
// Lock/Unlock for the duration of a turn.
type Session struct {
	ID         string
	Transcript []anthropic.Message
	Blip       *model.BlipSubmission
	Submitted  bool

	// lastActive is unix nanos, atomic so the janitor can read it
	// without taking the turn lock.
	lastActive atomic.Int64

	mu sync.Mutex
}

// New creates an empty session. When id is empty a UUID is assigned.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:   id,
		Blip: &model.BlipSubmission{},
	}
	s.Touch()
	return s
}

// Lock acquires the session's turn lock. Only one turn may be in flight per
// session; concurrent messages on the same session serialize here.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity so the janitor does not evict a live session.
func (s *Session) Touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive reports when the session last saw activity.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// AppendUser adds a user text message to the transcript.
func (s *Session) AppendUser(text string) {
	s.Transcript = append(s.Transcript, anthropic.UserText(text))
}

// AppendAssistant adds an assistant message with the given content blocks.
func (s *Session) AppendAssistant(blocks []anthropic.ContentBlock) {
	s.Transcript = append(s.Transcript, anthropic.Message{
		Role:    anthropic.RoleAssistant,
		Content: blocks,
	})
}

// AppendToolResults adds a user message carrying tool results, in the order
// the tool calls were issued.
func (s *Session) AppendToolResults(results []anthropic.ContentBlock) {
	s.Transcript = append(s.Transcript, anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: results,
	})
}

// Reset clears the transcript and submission record so the client can start
// over on the same connection.
func (s *Session) Reset() {
	s.Transcript = nil
	s.Blip = &model.BlipSubmission{}
	s.Submitted = false
	s.Touch()
}
