package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Registry holds one Tool per configured domain.
type Registry struct {
	tools map[domain.Domain]*Tool
}

// OpenRegistry opens a Tool for every config. On failure, already-opened tools are closed.
func OpenRegistry(cfgs []Config) (*Registry, error) {
	r := &Registry{tools: make(map[domain.Domain]*Tool, len(cfgs))}
	for _, cfg := range cfgs {
		if _, dup := r.tools[cfg.Domain]; dup {
			_ = r.Close()
			return nil, fmt.Errorf("duplicate dataset for domain %s", cfg.Domain)
		}
		t, err := Open(cfg)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.tools[cfg.Domain] = t
	}
	return r, nil
}

// Get returns the tool bound to d.
func (r *Registry) Get(d domain.Domain) (*Tool, bool) {
	t, ok := r.tools[d]
	return t, ok
}

// Domains lists the configured domains in routing priority order.
func (r *Registry) Domains() []domain.Domain {
	out := make([]domain.Domain, 0, len(r.tools))
	for _, d := range domain.Domains() {
		if _, ok := r.tools[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Ping checks every backing store.
func (r *Registry) Ping(ctx context.Context) error {
	var errs []error
	for _, d := range r.Domains() {
		if err := r.tools[d].Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every tool.
func (r *Registry) Close() error {
	var errs []error
	for _, t := range r.tools {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
