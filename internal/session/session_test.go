package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wisdom-keeper/backend/internal/orchestrator"
	"github.com/wisdom-keeper/backend/internal/persona"
)

type stubResponder struct {
	reply   orchestrator.Reply
	delay   time.Duration
	panicky bool
}

func (s *stubResponder) Respond(_ context.Context, _ string) orchestrator.Reply {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicky {
		panic("orchestration exploded")
	}
	return s.reply
}

func TestNewSessionSeedsWelcome(t *testing.T) {
	s := New("s1", &stubResponder{})

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("expected a single seeded message, got %d", len(history))
	}
	first := history[0]
	if first.Sender != SenderAssistant {
		t.Fatalf("welcome must come from the assistant, got %q", first.Sender)
	}
	if first.Provider != ProviderSystem {
		t.Fatalf("welcome must be tagged system, got %q", first.Provider)
	}
	if first.Content != persona.WelcomeMessage {
		t.Fatalf("unexpected welcome content %q", first.Content)
	}
}

func TestSendAppendsBothSides(t *testing.T) {
	s := New("s1", &stubResponder{
		reply: orchestrator.Reply{Text: "Seeker, the answer is Python.", ProviderID: "groq"},
	})

	msg, err := s.Send(context.Background(), "what language?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "Seeker, the answer is Python." {
		t.Fatalf("unexpected assistant content %q", msg.Content)
	}
	if msg.Provider != "groq" {
		t.Fatalf("unexpected provider %q", msg.Provider)
	}

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("expected welcome + user + assistant, got %d messages", len(history))
	}
	if history[1].Sender != SenderUser || history[1].Content != "what language?" {
		t.Fatalf("user message not recorded: %+v", history[1])
	}
	if s.State() != StateIdle {
		t.Fatalf("session must return to idle after a cycle")
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	s := New("s1", &stubResponder{})

	for _, content := range []string{"", "   ", "\n\t "} {
		if _, err := s.Send(context.Background(), content); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Send(%q): expected ErrEmptyMessage, got %v", content, err)
		}
	}
	if len(s.History()) != 1 {
		t.Fatalf("rejected sends must not touch the history")
	}
}

func TestSendWhileBusyIsRejected(t *testing.T) {
	s := New("s1", &stubResponder{
		reply: orchestrator.Reply{Text: "Patience, seeker.", ProviderID: "groq"},
		delay: 100 * time.Millisecond,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.Send(context.Background(), "first"); err != nil {
			t.Errorf("first send failed: %v", err)
		}
	}()

	// Wait until the first send holds the pending state.
	deadline := time.Now().Add(time.Second)
	for s.State() != StateAwaitingResponse {
		if time.Now().After(deadline) {
			t.Fatalf("session never entered the pending state")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for concurrent send, got %v", err)
	}

	wg.Wait()
}

func TestPanicResolvesToApology(t *testing.T) {
	s := New("s1", &stubResponder{panicky: true})

	msg, err := s.Send(context.Background(), "trigger")
	if err != nil {
		t.Fatalf("panic must not surface as an error: %v", err)
	}
	if msg.Content != persona.ApologyMessage {
		t.Fatalf("expected the apology message, got %q", msg.Content)
	}
	if msg.Provider != ProviderSystem {
		t.Fatalf("apology must be tagged system, got %q", msg.Provider)
	}
	if s.State() != StateIdle {
		t.Fatalf("session must recover to idle after a panic")
	}

	// The session stays usable.
	s.responder = &stubResponder{reply: orchestrator.Reply{Text: "Back again, seeker.", ProviderID: "groq"}}
	if _, err := s.Send(context.Background(), "still there?"); err != nil {
		t.Fatalf("session unusable after panic: %v", err)
	}
}

func TestManagerCreatesAndReuses(t *testing.T) {
	m := NewManager(&stubResponder{
		reply: orchestrator.Reply{Text: "Greetings, seeker.", ProviderID: "groq"},
	}, time.Minute)
	defer m.Close()

	created := m.Get("")
	if created.ID() == "" {
		t.Fatalf("expected a generated session id")
	}

	same := m.Get(created.ID())
	if same != created {
		t.Fatalf("expected the same session instance for a known id")
	}

	if _, ok := m.Lookup("no-such-id"); ok {
		t.Fatalf("lookup must not create sessions")
	}
	if _, ok := m.Lookup(created.ID()); !ok {
		t.Fatalf("lookup failed for a live session")
	}
}

func TestHistoryIsACopy(t *testing.T) {
	s := New("s1", &stubResponder{})

	history := s.History()
	history[0].Content = strings.Repeat("tamper", 3)

	if s.History()[0].Content != persona.WelcomeMessage {
		t.Fatalf("mutating the returned history must not affect the session")
	}
}
