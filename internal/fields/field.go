// Package fields declares typed model attributes for the remote resource API.
//
// A Field describes one attribute: how an external value is coerced to its
// in-memory type, what its default is, and, for relationship fields, which
// model it points at. Fields are attached to a Model through a Registry, which
// resolves relationships lazily so models may be declared in any order.
package fields

import (
	"errors"
	"fmt"
	"strings"
)

type notProvided struct{}

// NotProvided is the default of a field declared without one. It is distinct
// from every real value, including nil, "", 0 and empty collections.
var NotProvided any = notProvided{}

var (
	ErrNoDefault = errors.New("no default set")
	ErrCoerce    = errors.New("cannot coerce value")
	ErrRequired  = errors.New("value is required")
	ErrBlank     = errors.New("value may not be blank")
)

// Validator checks a coerced value.
type Validator func(value any) error

// Relation is the relationship half of a related-object field.
type Relation struct {
	Target      string // target model name, which may not be declared yet
	Multiple    bool
	RelatedName string // reverse accessor on the target; defaults to "<model>_set"
}

// Field is a declarative descriptor of one model attribute.
type Field struct {
	VerboseName string
	Name        string
	AttName     string
	MaxLength   int
	Blank       bool
	Null        bool
	Default     any // NotProvided, a value, or a func() any returning a fresh value
	Choices     []any
	HelpText    string
	Validators  []Validator
	Nested      *Model
	Rel         *Relation
	Kind        Kind
	Model       *Model
}

// Option configures a Field at construction.
type Option func(*Field)

func WithVerboseName(label string) Option { return func(f *Field) { f.VerboseName = label } }
func WithName(name string) Option         { return func(f *Field) { f.Name = name } }
func WithMaxLength(n int) Option          { return func(f *Field) { f.MaxLength = n } }
func WithBlank() Option                   { return func(f *Field) { f.Blank = true } }
func WithNull() Option                    { return func(f *Field) { f.Null = true } }
func WithDefault(v any) Option            { return func(f *Field) { f.Default = v } }
func WithChoices(c ...any) Option         { return func(f *Field) { f.Choices = c } }
func WithHelpText(s string) Option        { return func(f *Field) { f.HelpText = s } }

func WithValidators(v ...Validator) Option {
	return func(f *Field) { f.Validators = append(f.Validators, v...) }
}

// WithRelatedName sets the reverse accessor name of a related-object field.
func WithRelatedName(name string) Option {
	return func(f *Field) {
		if f.Rel != nil {
			f.Rel.RelatedName = name
		}
	}
}

// New constructs a field of the given kind.
func New(kind Kind, opts ...Option) *Field {
	f := &Field{Kind: kind, Default: NotProvided}
	if d, ok := kind.(defaulter); ok {
		f.Default = d.defaultValue
	}
	if n, ok := kind.(NestedObjectKind); ok {
		f.Nested = n.Schema
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.Name == "" && f.VerboseName != "" {
		f.Name = deriveName(f.VerboseName)
	}
	return f
}

func Base(opts ...Option) *Field     { return New(BaseKind{}, opts...) }
func Char(opts ...Option) *Field     { return New(CharKind{}, opts...) }
func UUID(opts ...Option) *Field     { return New(UUIDKind{}, opts...) }
func DateTime(opts ...Option) *Field { return New(DateTimeKind{}, opts...) }
func Int(opts ...Option) *Field      { return New(IntKind{}, opts...) }
func Decimal(opts ...Option) *Field  { return New(DecimalKind{}, opts...) }
func List(opts ...Option) *Field     { return New(ListKind{}, opts...) }

// NestedObject declares an embedded sub-object decoded through schema (nil keeps the raw map).
func NestedObject(schema *Model, opts ...Option) *Field {
	return New(NestedObjectKind{Schema: schema}, opts...)
}

// RelatedObject declares a reference to the model named target.
func RelatedObject(target string, multiple bool, opts ...Option) *Field {
	rel := &Relation{Target: target, Multiple: multiple}
	f := New(RelatedObjectKind{}, append([]Option{func(f *Field) { f.Rel = rel }}, opts...)...)
	return f
}

func deriveName(verbose string) string {
	return strings.ReplaceAll(strings.ToLower(verbose), " ", "_")
}

// Coerce converts an external value to the field's in-memory type.
func (f *Field) Coerce(value any) (any, error) {
	if value == nil && f.Null {
		return nil, nil
	}
	v, err := f.Kind.Coerce(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.label(), err)
	}
	return v, nil
}

// Clean coerces value and runs the field's blank check and validators.
func (f *Field) Clean(value any) (any, error) {
	v, err := f.Coerce(value)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok && s == "" && !f.Blank {
		return nil, fmt.Errorf("%s: %w", f.label(), ErrBlank)
	}
	if f.MaxLength > 0 {
		if s, ok := v.(string); ok && len([]rune(s)) > f.MaxLength {
			return nil, fmt.Errorf("%s: length %d exceeds %d", f.label(), len([]rune(s)), f.MaxLength)
		}
	}
	for _, validate := range f.Validators {
		if err := validate(v); err != nil {
			return nil, fmt.Errorf("%s: %w", f.label(), err)
		}
	}
	return v, nil
}

// HasDefault reports whether a default was supplied.
func (f *Field) HasDefault() bool {
	_, missing := f.Default.(notProvided)
	return !missing
}

// GetDefault returns the configured default or ErrNoDefault.
func (f *Field) GetDefault() (any, error) {
	if !f.HasDefault() {
		return nil, fmt.Errorf("%s: %w", f.label(), ErrNoDefault)
	}
	if fn, ok := f.Default.(func() any); ok {
		return fn(), nil
	}
	return f.Default, nil
}

// ContributeToModel binds the field to model under attname and appends it to
// the model's field registry. Relationship fields also register a deferred
// reverse accessor on their target.
func (f *Field) ContributeToModel(m *Model, attname string) error {
	if f.Name == "" {
		f.Name = attname
	}
	f.AttName = attname
	if f.VerboseName == "" {
		f.VerboseName = strings.ReplaceAll(attname, "_", " ")
	}
	f.Model = m
	if err := m.addField(f); err != nil {
		return err
	}
	if f.Rel == nil {
		return nil
	}
	if m.registry == nil {
		return fmt.Errorf("model %s: relationship field %s needs a registry", m.Name, attname)
	}
	relatedName := f.Rel.RelatedName
	if relatedName == "" {
		relatedName = strings.ToLower(m.Name) + "_set"
	}
	return m.bindRelation(f.Rel.Target, relatedName, f.Rel.Multiple)
}

func (f *Field) label() string {
	if f.Model != nil {
		return f.Model.Name + "." + f.Name
	}
	if f.Name != "" {
		return f.Name
	}
	return "field"
}
