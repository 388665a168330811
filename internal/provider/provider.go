// Package provider sends single chat requests to the configured AI backends
// and enforces each backend's daily quota.
package provider

import (
	"fmt"
)

// Config describes one provider endpoint. Static for the life of the server.
type Config struct {
	ID         string
	Name       string
	Endpoint   string
	Models     []string
	DailyLimit int
}

// Reply is a normalized provider answer.
type Reply struct {
	Text       string
	ProviderID string
	Model      string
}

// Registry holds the provider configs and the fallback priority order. The
// order is configuration, not a hard rule; deployments tune it.
type Registry struct {
	order []string
	byID  map[string]Config
}

func NewRegistry(configs []Config, order []string) (*Registry, error) {
	byID := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("provider config missing id")
		}
		if len(cfg.Models) == 0 {
			return nil, fmt.Errorf("provider %s has no models", cfg.ID)
		}
		byID[cfg.ID] = cfg
	}

	for _, id := range order {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("priority order references unknown provider %s", id)
		}
	}

	if len(order) == 0 {
		for _, cfg := range configs {
			order = append(order, cfg.ID)
		}
	}

	return &Registry{order: order, byID: byID}, nil
}

// Order returns the fallback priority order.
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the config for a provider id.
func (r *Registry) Get(id string) (Config, bool) {
	cfg, ok := r.byID[id]
	return cfg, ok
}

// All returns every registered config, in priority order.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Configs returns every registered config, including providers left out of
// the priority order. Iteration order is unspecified.
func (r *Registry) Configs() []Config {
	out := make([]Config, 0, len(r.byID))
	for _, cfg := range r.byID {
		out = append(out, cfg)
	}
	return out
}
