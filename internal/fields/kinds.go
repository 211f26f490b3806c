package fields

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Kind is the coercion strategy of a field.
type Kind interface {
	Coerce(value any) (any, error)
}

// defaulter is implemented by kinds that carry an implicit default.
type defaulter interface {
	defaultValue() any
}

// BaseKind returns values unchanged.
type BaseKind struct{}

func (BaseKind) Coerce(value any) (any, error) { return value, nil }

// CharKind coerces to string.
type CharKind struct{}

func (CharKind) Coerce(value any) (any, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return nil, coerceErr(value, "string", err)
	}
	return s, nil
}

// UUIDKind coerces to the canonical string form of a UUID.
type UUIDKind struct{}

func (UUIDKind) Coerce(value any) (any, error) {
	if u, ok := value.(uuid.UUID); ok {
		return u.String(), nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return nil, coerceErr(value, "uuid", err)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, coerceErr(value, "uuid", err)
	}
	return u.String(), nil
}

// DateTimeKind parses strings and unix timestamps into time.Time.
type DateTimeKind struct{}

func (DateTimeKind) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, coerceErr(value, "datetime", nil)
		}
		return *v, nil
	case nil:
		return nil, coerceErr(value, "datetime", nil)
	}
	t, err := cast.ToTimeE(value)
	if err != nil {
		return nil, coerceErr(value, "datetime", err)
	}
	return t, nil
}

// IntKind coerces to int64.
type IntKind struct{}

func (IntKind) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, coerceErr(value, "int", err)
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, coerceErr(value, "int", err)
		}
		return n, nil
	case nil:
		return nil, coerceErr(value, "int", nil)
	}
	n, err := cast.ToInt64E(value)
	if err != nil {
		return nil, coerceErr(value, "int", err)
	}
	return n, nil
}

// DecimalKind coerces to an arbitrary precision decimal.
type DecimalKind struct{}

func (DecimalKind) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, coerceErr(value, "decimal", err)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, coerceErr(value, "decimal", err)
		}
		return d, nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case nil:
		return nil, coerceErr(value, "decimal", nil)
	}
	n, err := cast.ToInt64E(value)
	if err != nil {
		return nil, coerceErr(value, "decimal", err)
	}
	return decimal.NewFromInt(n), nil
}

// ListKind coerces any slice or array to []any. Strings iterate as characters;
// every other value is not iterable.
type ListKind struct{}

func (ListKind) defaultValue() any { return []any{} }

func (ListKind) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		return append([]any{}, v...), nil
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	case nil:
		return nil, coerceErr(value, "list", nil)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, coerceErr(value, "list", fmt.Errorf("%T is not iterable", value))
}

// NestedObjectKind decodes an embedded object, through Schema when set.
type NestedObjectKind struct {
	Schema *Model
}

func (NestedObjectKind) defaultValue() any { return map[string]any{} }

func (k NestedObjectKind) Coerce(value any) (any, error) {
	m, err := cast.ToStringMapE(value)
	if err != nil || value == nil {
		return nil, coerceErr(value, "object", err)
	}
	if k.Schema == nil {
		return m, nil
	}
	decoded, err := k.Schema.Decode(m)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// RelatedObjectKind keeps the reference as given; the relationship lives on Field.Rel.
type RelatedObjectKind struct{}

func (RelatedObjectKind) Coerce(value any) (any, error) { return value, nil }

func coerceErr(value any, kind string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %#v to %s", ErrCoerce, value, kind)
	}
	return fmt.Errorf("%w: %#v to %s: %v", ErrCoerce, value, kind, cause)
}
