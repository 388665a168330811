// Package orchestrator tries the configured providers in priority order and
// falls back to the pattern responder when every remote path fails. Respond
// is total: it always returns a usable answer.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/metrics"
	"github.com/wisdom-keeper/backend/internal/pattern"
	"github.com/wisdom-keeper/backend/internal/persona"
	"github.com/wisdom-keeper/backend/internal/provider"
	"github.com/wisdom-keeper/backend/pkg/logger"
	"github.com/wisdom-keeper/backend/pkg/utils"
)

// FallbackProviderID tags answers produced by the pattern responder.
const FallbackProviderID = "pattern-fallback"

// Reply is the orchestrator's final answer.
type Reply struct {
	Text       string `json:"text"`
	ProviderID string `json:"provider_id"`
}

// Caller abstracts the provider gateway so tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, providerID, userInput string) (*provider.Reply, error)
}

// ReplyCache is an optional remote-answer cache; nil disables caching.
type ReplyCache interface {
	GetReply(ctx context.Context, key string, out interface{}) (bool, error)
	SetReply(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Engine struct {
	gateway   Caller
	order     []string
	stylist   *persona.Stylist
	responder *pattern.Responder
	minLength int
	cache     ReplyCache
	cacheTTL  time.Duration
}

// NewEngine wires the fallback chain. minLength is the "non-trivial response"
// threshold; zero means the default of 10 characters.
func NewEngine(gateway Caller, order []string, stylist *persona.Stylist, responder *pattern.Responder, minLength int) *Engine {
	if minLength == 0 {
		minLength = 10
	}
	return &Engine{
		gateway:   gateway,
		order:     order,
		stylist:   stylist,
		responder: responder,
		minLength: minLength,
	}
}

// WithCache enables the optional reply cache.
func (e *Engine) WithCache(cache ReplyCache, ttl time.Duration) *Engine {
	e.cache = cache
	e.cacheTTL = ttl
	return e
}

// Respond never fails. Quota, network, HTTP, and too-short failures are all
// treated the same: log and advance to the next provider.
func (e *Engine) Respond(ctx context.Context, userInput string) Reply {
	cacheKey := ""
	if e.cache != nil {
		cacheKey = utils.HashString(strings.ToLower(strings.TrimSpace(userInput)))
		var cached Reply
		hit, err := e.cache.GetReply(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Reply cache lookup failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("reply").Inc()
			return cached
		}
		metrics.CacheMisses.WithLabelValues("reply").Inc()
	}

	for _, providerID := range e.order {
		result, err := e.gateway.Call(ctx, providerID, userInput)
		if err != nil {
			logger.Info("Provider failed, trying next",
				zap.String("provider", providerID),
				zap.Error(err),
			)
			continue
		}

		if len(strings.TrimSpace(result.Text)) <= e.minLength {
			logger.Info("Provider returned trivial response, trying next",
				zap.String("provider", providerID),
				zap.Int("length", len(result.Text)),
			)
			continue
		}

		reply := Reply{
			Text:       e.stylist.Style(result.Text),
			ProviderID: providerID,
		}

		if e.cache != nil {
			if err := e.cache.SetReply(ctx, cacheKey, reply, e.cacheTTL); err != nil {
				logger.Warn("Reply cache store failed", zap.Error(err))
			}
		}

		return reply
	}

	logger.Info("All providers exhausted, using pattern responder")
	metrics.PatternFallbackTotal.Inc()

	return Reply{
		Text:       e.responder.Respond(userInput),
		ProviderID: FallbackProviderID,
	}
}
