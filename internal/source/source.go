// Package source keeps the registry of job-search API adapters.
package source

import (
	"fmt"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

// Registry maps source names to their adapter implementations.
type Registry struct {
	sources map[domain.Source]ports.JobSource
	order   []domain.Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[domain.Source]ports.JobSource{}}
}

// Register adds or replaces an adapter, preserving registration order so a
// pipeline run visits sources deterministically.
func (r *Registry) Register(src ports.JobSource) {
	if r.sources == nil {
		r.sources = map[domain.Source]ports.JobSource{}
	}
	name := src.Name()
	if _, ok := r.sources[name]; !ok {
		r.order = append(r.order, name)
	}
	r.sources[name] = src
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name domain.Source) (ports.JobSource, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// All returns the adapters in registration order.
func (r *Registry) All() []ports.JobSource {
	out := make([]ports.JobSource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}
