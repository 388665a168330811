// Package session holds per-visitor conversation state and drives the
// orchestrator. A session moves idle -> awaitingResponse -> idle; unexpected
// failures resolve to an in-character apology instead of an error.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/metrics"
	"github.com/wisdom-keeper/backend/internal/orchestrator"
	"github.com/wisdom-keeper/backend/internal/persona"
	"github.com/wisdom-keeper/backend/pkg/logger"
)

var (
	// ErrBusy means a previous submission is still being answered.
	ErrBusy = errors.New("session is awaiting a response")

	// ErrEmptyMessage means the submitted text was blank.
	ErrEmptyMessage = errors.New("message is empty")
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ProviderSystem tags scripted messages (welcome, apology).
const ProviderSystem = "system"

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"`
}

type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

// Responder is the orchestration entry point; it always resolves.
type Responder interface {
	Respond(ctx context.Context, userInput string) orchestrator.Reply
}

type Session struct {
	id        string
	responder Responder

	mu         sync.Mutex
	state      State
	messages   []Message
	lastActive time.Time
}

// New creates a session seeded with the fixed welcome message.
func New(id string, responder Responder) *Session {
	s := &Session{
		id:         id,
		responder:  responder,
		lastActive: time.Now(),
	}

	s.messages = append(s.messages, Message{
		ID:        uuid.New().String(),
		Content:   persona.WelcomeMessage,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Provider:  ProviderSystem,
	})

	return s
}

func (s *Session) ID() string {
	return s.id
}

// Send submits user text and blocks until the assistant reply is appended.
// A submission while a previous one is pending is rejected with ErrBusy; the
// session itself never returns an orchestration error.
func (s *Session) Send(ctx context.Context, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateAwaitingResponse {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	s.state = StateAwaitingResponse
	s.messages = append(s.messages, Message{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	reply := s.respond(ctx, content)

	assistant := Message{
		ID:        uuid.New().String(),
		Content:   reply.Text,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Provider:  reply.ProviderID,
	}

	s.mu.Lock()
	s.messages = append(s.messages, assistant)
	s.state = StateIdle
	s.lastActive = time.Now()
	s.mu.Unlock()

	metrics.ChatMessagesTotal.WithLabelValues(reply.ProviderID).Inc()

	return assistant, nil
}

// respond shields the conversation from any unexpected panic in the
// orchestration path by resolving to the apology message.
func (s *Session) respond(ctx context.Context, content string) (reply orchestrator.Reply) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Orchestration panicked, serving apology",
				zap.String("session_id", s.id),
				zap.Any("panic", r),
			)
			reply = orchestrator.Reply{
				Text:       persona.ApologyMessage,
				ProviderID: ProviderSystem,
			}
		}
	}()

	return s.responder.Respond(ctx, content)
}

// State reports the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the append-only message log.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastActive reports when the session last finished a cycle.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
