// Package provider exposes read-only content services to templates.
//
// Providers are constructed from a static list of factories. Only providers
// enabled in configuration are built; each is reachable from templates as
// .providers.<namespace>.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Provider is a template-facing content service.
type Provider interface {
	Namespace() string
}

// Factory builds a provider from its configuration options. The context
// bounds every request the provider makes during the build.
type Factory struct {
	Name string
	New  func(ctx context.Context, options map[string]string) (Provider, error)
}

// Builtin lists the providers shipped with pagesmith.
var Builtin = []Factory{
	{Name: NotionNamespace, New: NewNotionFromOptions},
}

// Registry holds the providers of one build.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p under its namespace.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("cannot register nil provider")
	}
	ns := p.Namespace()
	if ns == "" {
		return fmt.Errorf("provider %T doesn't declare a namespace", p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[ns]; exists {
		return fmt.Errorf("provider %s already registered", ns)
	}
	r.providers[ns] = p
	return nil
}

// Get returns the provider registered under ns.
func (r *Registry) Get(ns string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[ns]
	return p, ok
}

// Namespaces lists registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for ns := range r.providers {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Templates returns the namespace map handed to templates.
func (r *Registry) Templates() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.providers))
	for ns, p := range r.providers {
		out[ns] = p
	}
	return out
}

// Load builds a registry containing the enabled providers of cfgs.
func Load(ctx context.Context, cfgs []config.ProviderConfig, factories []Factory) (*Registry, error) {
	byName := make(map[string]Factory, len(factories))
	for _, f := range factories {
		byName[f.Name] = f
	}

	reg := NewRegistry()
	for _, pc := range cfgs {
		if !pc.Enabled {
			slog.Debug("Provider disabled", logfields.Provider(pc.Name))
			continue
		}
		f, ok := byName[pc.Name]
		if !ok {
			return nil, ferrors.ProviderError("unknown provider").
				WithContext("provider", pc.Name).
				Build()
		}
		p, err := f.New(ctx, pc.Options)
		if err != nil {
			if ferrors.IsClassified(err) {
				return nil, err
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryProvider, "failed to initialise provider").
				WithContext("provider", pc.Name).
				Build()
		}
		if err := reg.Register(p); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryProvider, "failed to register provider").
				WithContext("provider", pc.Name).
				Build()
		}
		slog.Info("Provider enabled", logfields.Provider(pc.Name))
	}
	return reg, nil
}
