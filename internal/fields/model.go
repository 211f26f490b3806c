package fields

import (
	"errors"
	"fmt"
	"sort"
)

// Model is a declared model: a name and its fields in declaration order.
type Model struct {
	Name     string
	fields   []*Field
	byAtt    map[string]*Field
	reverse  map[string]ReverseAccessor
	registry *Registry

	// set while Define contributes fields; bindings wait in staged
	defining bool
	staged   []stagedRel
}

// ReverseAccessor is the attribute a relationship installs on its target model.
type ReverseAccessor struct {
	Name     string
	Source   string // model declaring the relationship field
	Multiple bool
}

// NewModel returns a standalone model, for nested schemas that take part in no
// relationships. Models with relationships are declared through a Registry.
func NewModel(name string, decls ...Decl) (*Model, error) {
	m := newModel(name, nil)
	for _, d := range decls {
		if err := d.Field.ContributeToModel(m, d.AttName); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func newModel(name string, r *Registry) *Model {
	return &Model{
		Name:     name,
		byAtt:    make(map[string]*Field),
		reverse:  make(map[string]ReverseAccessor),
		registry: r,
	}
}

func (m *Model) addField(f *Field) error {
	if _, dup := m.byAtt[f.AttName]; dup {
		return fmt.Errorf("model %s: duplicate field %s", m.Name, f.AttName)
	}
	m.fields = append(m.fields, f)
	m.byAtt[f.AttName] = f
	return nil
}

// bindRelation registers a relationship from m to target, or stages it while
// m is still being defined.
func (m *Model) bindRelation(target, relatedName string, multiple bool) error {
	if m.defining {
		m.staged = append(m.staged, stagedRel{
			target: target,
			rel:    lazyRel{relatedName: relatedName, source: m.Name, multiple: multiple},
		})
		return nil
	}
	return m.registry.registerLazyRel(target, relatedName, m.Name, multiple)
}

// Fields returns the model's fields in declaration order.
func (m *Model) Fields() []*Field {
	return append([]*Field(nil), m.fields...)
}

// Field looks a field up by attribute name.
func (m *Model) Field(attname string) (*Field, bool) {
	f, ok := m.byAtt[attname]
	return f, ok
}

// ReverseAccessor looks up an accessor installed by a relationship targeting m.
func (m *Model) ReverseAccessor(name string) (ReverseAccessor, bool) {
	ra, ok := m.reverse[name]
	return ra, ok
}

// ReverseAccessors returns every accessor installed on m, sorted by name.
func (m *Model) ReverseAccessors() []ReverseAccessor {
	out := make([]ReverseAccessor, 0, len(m.reverse))
	for _, ra := range m.reverse {
		out = append(out, ra)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Decode cleans a raw attribute map keyed by field name into a map keyed by
// attribute name. Missing or null values fall back to the field default, then
// to nil for nullable fields.
func (m *Model) Decode(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m.fields))
	var errs []error
	for _, f := range m.fields {
		value, present := raw[f.Name]
		if !present || value == nil {
			switch {
			case f.HasDefault():
				d, _ := f.GetDefault()
				out[f.AttName] = d
			case f.Null:
				out[f.AttName] = nil
			default:
				errs = append(errs, fmt.Errorf("%s.%s: %w", m.Name, f.Name, ErrRequired))
			}
			continue
		}
		v, err := f.Clean(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[f.AttName] = v
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
