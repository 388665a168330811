package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/wisdom-keeper/backend/internal/pattern"
	"github.com/wisdom-keeper/backend/internal/persona"
	"github.com/wisdom-keeper/backend/internal/provider"
)

type fakeGateway struct {
	replies map[string]*provider.Reply
	errs    map[string]error
	calls   []string
}

func (f *fakeGateway) Call(_ context.Context, providerID, _ string) (*provider.Reply, error) {
	f.calls = append(f.calls, providerID)
	if err, ok := f.errs[providerID]; ok {
		return nil, err
	}
	if reply, ok := f.replies[providerID]; ok {
		return reply, nil
	}
	return nil, errors.New("no stub for " + providerID)
}

func newTestEngine(gw Caller) *Engine {
	return NewEngine(
		gw,
		[]string{"groq", "together", "openrouter"},
		persona.NewStylist(rand.New(rand.NewSource(1))),
		pattern.NewResponder(rand.New(rand.NewSource(1))),
		0,
	)
}

func TestFirstHealthyProviderWins(t *testing.T) {
	gw := &fakeGateway{
		replies: map[string]*provider.Reply{
			"groq": {Text: "Seeker, his strongest art is Python.", ProviderID: "groq"},
		},
	}

	reply := newTestEngine(gw).Respond(context.Background(), "what skills?")

	if reply.ProviderID != "groq" {
		t.Fatalf("expected groq to answer, got %q", reply.ProviderID)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("expected a single call, got %v", gw.calls)
	}
}

func TestFailuresAdvanceDownTheChain(t *testing.T) {
	gw := &fakeGateway{
		errs: map[string]error{
			"groq":     provider.ErrQuotaExceeded,
			"together": errors.New("connection refused"),
		},
		replies: map[string]*provider.Reply{
			"openrouter": {Text: "Seeker, he dwells in Bengaluru these days.", ProviderID: "openrouter"},
		},
	}

	reply := newTestEngine(gw).Respond(context.Background(), "where is he?")

	if reply.ProviderID != "openrouter" {
		t.Fatalf("expected openrouter to answer, got %q", reply.ProviderID)
	}
	want := []string{"groq", "together", "openrouter"}
	if len(gw.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, gw.calls)
	}
	for i := range want {
		if gw.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, gw.calls)
		}
	}
}

func TestTrivialResponseIsRejected(t *testing.T) {
	gw := &fakeGateway{
		replies: map[string]*provider.Reply{
			"groq":     {Text: "   ok.   ", ProviderID: "groq"},
			"together": {Text: "Seeker, the full tale spans many scrolls.", ProviderID: "together"},
		},
	}

	reply := newTestEngine(gw).Respond(context.Background(), "tell me everything")

	if reply.ProviderID != "together" {
		t.Fatalf("short answer should be skipped, got provider %q", reply.ProviderID)
	}
}

func TestExhaustionFallsBackToPatterns(t *testing.T) {
	gw := &fakeGateway{
		errs: map[string]error{
			"groq":       provider.ErrQuotaExceeded,
			"together":   provider.ErrQuotaExceeded,
			"openrouter": provider.ErrQuotaExceeded,
		},
	}

	reply := newTestEngine(gw).Respond(context.Background(), "hello there")

	if reply.ProviderID != FallbackProviderID {
		t.Fatalf("expected pattern fallback, got %q", reply.ProviderID)
	}
	if reply.Text == "" {
		t.Fatalf("fallback must produce a non-empty answer")
	}
}

func TestRespondIsTotal(t *testing.T) {
	gw := &fakeGateway{
		errs: map[string]error{
			"groq":       errors.New("boom"),
			"together":   errors.New("boom"),
			"openrouter": errors.New("boom"),
		},
	}
	engine := newTestEngine(gw)

	inputs := []string{"", "   ", "☕🚀", strings.Repeat("z", 3000)}
	for _, input := range inputs {
		if reply := engine.Respond(context.Background(), input); reply.Text == "" {
			t.Fatalf("Respond(%q) returned an empty answer", input)
		}
	}
}

func TestSuccessfulAnswerCarriesPersonaVoice(t *testing.T) {
	gw := &fakeGateway{
		replies: map[string]*provider.Reply{
			"groq": {Text: "He studied Information Technology at Aditya.", ProviderID: "groq"},
		},
	}

	reply := newTestEngine(gw).Respond(context.Background(), "education?")

	// No marker in the raw text, so a lead-in must be prepended.
	if !strings.HasSuffix(reply.Text, "He studied Information Technology at Aditya.") {
		t.Fatalf("original text lost: %q", reply.Text)
	}
	if reply.Text == "He studied Information Technology at Aditya." {
		t.Fatalf("expected a persona lead-in to be prepended")
	}
}

type fakeCache struct {
	stored map[string][]byte
	sets   int
	gets   int
}

func (f *fakeCache) GetReply(_ context.Context, key string, out interface{}) (bool, error) {
	f.gets++
	data, ok := f.stored[key]
	if !ok {
		return false, nil
	}
	reply := out.(*Reply)
	parts := strings.SplitN(string(data), "|", 2)
	reply.ProviderID = parts[0]
	reply.Text = parts[1]
	return true, nil
}

func (f *fakeCache) SetReply(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.sets++
	reply := value.(Reply)
	f.stored[key] = []byte(reply.ProviderID + "|" + reply.Text)
	return nil
}

func TestCacheShortCircuitsRepeatQuestions(t *testing.T) {
	gw := &fakeGateway{
		replies: map[string]*provider.Reply{
			"groq": {Text: "Seeker, ask and it shall be answered.", ProviderID: "groq"},
		},
	}
	cache := &fakeCache{stored: make(map[string][]byte)}
	engine := newTestEngine(gw).WithCache(cache, time.Minute)

	first := engine.Respond(context.Background(), "What are his skills?")
	second := engine.Respond(context.Background(), "  what are his skills?  ")

	if first.Text != second.Text {
		t.Fatalf("expected cached answer, got %q then %q", first.Text, second.Text)
	}
	if len(gw.calls) != 1 {
		t.Fatalf("second ask must be served from cache, calls: %v", gw.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache store, got %d", cache.sets)
	}
}
