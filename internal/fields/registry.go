package fields

import (
	"fmt"
	"sort"
	"sync"
)

// Decl pairs a field with the attribute name it is declared under.
type Decl struct {
	AttName string
	Field   *Field
}

// Attr is shorthand for a Decl.
func Attr(attname string, f *Field) Decl {
	return Decl{AttName: attname, Field: f}
}

type lazyRel struct {
	relatedName string
	source      string
	multiple    bool
}

// stagedRel is a binding held by a model until Define registers it.
type stagedRel struct {
	target string
	rel    lazyRel
}

// Registry holds declared models and the relationship bindings still waiting
// for their target model. A binding resolves the moment its target is defined.
type Registry struct {
	mu      sync.Mutex
	models  map[string]*Model
	pending map[string][]lazyRel
}

func NewRegistry() *Registry {
	return &Registry{
		models:  make(map[string]*Model),
		pending: make(map[string][]lazyRel),
	}
}

// Define declares a model, contributes its fields in order and resolves every
// pending binding that targets it. The model is registered only once all of
// its fields are in place; a failed Define leaves the registry unchanged.
func (r *Registry) Define(name string, decls ...Decl) (*Model, error) {
	r.mu.Lock()
	_, dup := r.models[name]
	r.mu.Unlock()
	if dup {
		return nil, fmt.Errorf("model %s already defined", name)
	}

	m := newModel(name, r)
	m.defining = true
	for _, d := range decls {
		if err := d.Field.ContributeToModel(m, d.AttName); err != nil {
			return nil, err
		}
	}
	m.defining = false

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.models[name]; dup {
		return nil, fmt.Errorf("model %s already defined", name)
	}
	if err := r.checkLocked(m); err != nil {
		return nil, err
	}

	r.models[name] = m
	targets := []string{name}
	for _, sr := range m.staged {
		r.pending[sr.target] = append(r.pending[sr.target], sr.rel)
		targets = append(targets, sr.target)
	}
	m.staged = nil
	for _, target := range targets {
		if err := r.resolveLocked(target); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// checkLocked reports the reverse accessor clash that registering m and its
// staged bindings would cause.
func (r *Registry) checkLocked(m *Model) error {
	seen := make(map[string]map[string]string)
	var claim func(target string, rel lazyRel) error
	names := func(target string) (map[string]string, error) {
		if got, ok := seen[target]; ok {
			return got, nil
		}
		got := make(map[string]string)
		seen[target] = got
		if t, ok := r.models[target]; ok {
			for n, ra := range t.reverse {
				got[n] = ra.Source
			}
		}
		for _, rel := range r.pending[target] {
			if err := claim(target, rel); err != nil {
				return nil, err
			}
		}
		return got, nil
	}
	claim = func(target string, rel lazyRel) error {
		got, err := names(target)
		if err != nil {
			return err
		}
		if src, dup := got[rel.relatedName]; dup && src != rel.source {
			return fmt.Errorf("model %s: reverse accessor %s clashes between %s and %s",
				target, rel.relatedName, src, rel.source)
		}
		got[rel.relatedName] = rel.source
		return nil
	}

	if _, err := names(m.Name); err != nil {
		return err
	}
	for _, sr := range m.staged {
		if err := claim(sr.target, sr.rel); err != nil {
			return err
		}
	}
	return nil
}

// Model returns a declared model.
func (r *Registry) Model(name string) (*Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[name]
	return m, ok
}

// Pending lists target model names that are referenced but not yet defined.
func (r *Registry) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for target := range r.pending {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) registerLazyRel(target, relatedName, source string, multiple bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[target] = append(r.pending[target], lazyRel{
		relatedName: relatedName,
		source:      source,
		multiple:    multiple,
	})
	return r.resolveLocked(target)
}

func (r *Registry) resolveLocked(target string) error {
	m, ok := r.models[target]
	if !ok {
		return nil
	}
	rels := r.pending[target]
	delete(r.pending, target)
	for _, rel := range rels {
		if existing, dup := m.reverse[rel.relatedName]; dup && existing.Source != rel.source {
			return fmt.Errorf("model %s: reverse accessor %s clashes between %s and %s",
				target, rel.relatedName, existing.Source, rel.source)
		}
		m.reverse[rel.relatedName] = ReverseAccessor{
			Name:     rel.relatedName,
			Source:   rel.source,
			Multiple: rel.multiple,
		}
	}
	return nil
}
