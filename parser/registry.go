package parser

import (
	"fmt"
	"slices"
)

type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range []Provider{&PDFProvider{}, &LayoutJSONProvider{}} {
		for _, f := range p.SupportedFormats() {
			r.providers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Provider, error) {
	p, ok := r.providers[format]
	if !ok {
		return nil, fmt.Errorf("no provider for source: %s", format)
	}
	return p, nil
}

func (r *Registry) Register(format string, p Provider) {
	r.providers[format] = p
}

// Formats lists the registered source names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.providers))
	for f := range r.providers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
