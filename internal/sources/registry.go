package sources

import (
	"fmt"
	"strings"
)

// DefaultAliases maps alternate spellings to canonical source names
var DefaultAliases = map[string]string{
	"ps":          SourcePlayStation,
	"ps4":         SourcePlayStation,
	"ps5":         SourcePlayStation,
	"psn":         SourcePlayStation,
	"xb":          SourceXbox,
	"xbox-one":    SourceXbox,
	"xbox-series": SourceXbox,
	"switch":      SourceNintendo,
	"pc":          SourceSteam,
}

// Registry maps source names to fetchers. It is immutable after construction.
type Registry struct {
	fetchers map[string]Fetcher
	aliases  map[string]string
	order    []string
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithAliases replaces the alias table
func WithAliases(aliases map[string]string) RegistryOption {
	return func(r *Registry) {
		r.aliases = make(map[string]string, len(aliases))
		for k, v := range aliases {
			r.aliases[normalizeName(k)] = normalizeName(v)
		}
	}
}

// NewRegistry creates a registry holding the given fetchers, keyed by their names
func NewRegistry(fetchers []Fetcher, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}
	WithAliases(DefaultAliases)(r)
	for _, opt := range opts {
		opt(r)
	}

	for _, f := range fetchers {
		name := normalizeName(f.Name())
		if name == "" || name == SourceAll {
			return nil, fmt.Errorf("invalid source name: %q", f.Name())
		}
		if _, dup := r.fetchers[name]; dup {
			return nil, fmt.Errorf("duplicate source name: %s", name)
		}
		r.fetchers[name] = f
		r.order = append(r.order, name)
	}
	return r, nil
}

// NewRegistryFromDefinitions builds a fetcher per definition with factory
func NewRegistryFromDefinitions(factory FetcherFactory, defs []Definition, opts ...RegistryOption) (*Registry, error) {
	fetchers := make([]Fetcher, 0, len(defs))
	for _, def := range defs {
		f, err := factory.CreateFetcher(def)
		if err != nil {
			return nil, fmt.Errorf("failed to create fetcher for %s: %w", def.Name, err)
		}
		fetchers = append(fetchers, f)
	}
	return NewRegistry(fetchers, opts...)
}

// Canonical returns the registered name for name, applying case folding and aliases
func (r *Registry) Canonical(name string) (string, error) {
	key := normalizeName(name)
	if alias, ok := r.aliases[key]; ok {
		key = alias
	}
	if _, ok := r.fetchers[key]; !ok {
		return "", &UnsupportedSourceError{Name: name}
	}
	return key, nil
}

// Resolve returns the fetcher registered for name
func (r *Registry) Resolve(name string) (Fetcher, error) {
	key, err := r.Canonical(name)
	if err != nil {
		return nil, err
	}
	return r.fetchers[key], nil
}

// ResolveAll returns every registered fetcher keyed by canonical name
func (r *Registry) ResolveAll() map[string]Fetcher {
	out := make(map[string]Fetcher, len(r.fetchers))
	for k, v := range r.fetchers {
		out[k] = v
	}
	return out
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// IsAggregate reports whether name asks for every source at once
func IsAggregate(name string) bool {
	return normalizeName(name) == SourceAll
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
