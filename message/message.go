// Package message defines the value-object contract simulation objects
// exchange: a typed payload ordered by (type name, attribute tuple), fixed
// in shape at declaration time and immutable after construction.
//
// Grounded on packages/core/message.Message in the teacher repo (a typed
// payload wrapper) and on original_source/de_sim/event_message2.py's
// EventMessageInterface, whose __slots__-declared attribute list and
// (class name, attribute tuple) ordering this package reproduces without
// the Python metaclass machinery.
package message

import (
	"fmt"
	"strings"

	"github.com/ersantana/desim/simerr"
)

// Message is the ordering and identity contract every event payload
// satisfies. TypeName and Values together form the comparison key from
// spec.md §3: (type name, attribute tuple).
type Message interface {
	TypeName() string
	Values() []any
}

// Less implements the total order spec.md §4.1 requires: first by type
// name, then lexicographically by attribute tuple. Attribute values must
// themselves be ordered with Compare (see below); a type whose values
// cannot be compared this way should not rely on the default ordering.
func Less(a, b Message) bool {
	if a.TypeName() != b.TypeName() {
		return a.TypeName() < b.TypeName()
	}
	av, bv := a.Values(), b.Values()
	n := len(av)
	if len(bv) < n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		c := Compare(av[i], bv[i])
		if c != 0 {
			return c < 0
		}
	}
	return len(av) < len(bv)
}

// Compare orders two attribute values of the same underlying type.
// Supports the scalar kinds simulation messages commonly carry; a value
// of any other type is compared by its fmt.Sprintf("%v") rendering so the
// order remains total (if degenerate) rather than panicking mid-schedule.
func Compare(a, b any) int {
	switch av := a.(type) {
	case int:
		bv := b.(int)
		return cmpOrdered(av, bv)
	case int64:
		bv := b.(int64)
		return cmpOrdered(av, bv)
	case float64:
		bv := b.(float64)
		return cmpOrdered(av, bv)
	case string:
		bv := b.(string)
		return cmpOrdered(av, bv)
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	default:
		as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
		return cmpOrdered(as, bs)
	}
}

func cmpOrdered[T int | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Schema is a declared message type: a fixed, ordered list of attribute
// names established at declaration time. Schema.New enforces the
// ArgumentCountMismatch invariant from spec.md §4.1.
type Schema struct {
	typeName   string
	fieldNames []string
}

// Declare registers a message type's name and ordered attribute-name list.
// Mirrors the teacher's per-subclass `msg_field_names` declaration
// (packages/protocol message structs; original_source EventMessage
// subclasses' `msg_field_names = [...]`).
func Declare(typeName string, fieldNames ...string) *Schema {
	names := make([]string, len(fieldNames))
	copy(names, fieldNames)
	return &Schema{typeName: typeName, fieldNames: names}
}

// TypeName returns the declared message type name.
func (s *Schema) TypeName() string { return s.typeName }

// FieldNames returns the declared, ordered attribute names.
func (s *Schema) FieldNames() []string { return append([]string(nil), s.fieldNames...) }

// New constructs a Record with positional attribute values matching the
// schema's declared field count.
func (s *Schema) New(values ...any) (*Record, error) {
	if len(values) != len(s.fieldNames) {
		return nil, fmt.Errorf("%w: message %q expects %d argument(s), got %d",
			simerr.ErrArgumentCountMismatch, s.typeName, len(s.fieldNames), len(values))
	}
	vs := make([]any, len(values))
	copy(vs, values)
	return &Record{schema: s, values: vs}, nil
}

// MustNew is New but panics on arity mismatch; convenient for fixed,
// compile-time-known construction sites the way a typed Go struct literal
// would be.
func (s *Schema) MustNew(values ...any) *Record {
	r, err := s.New(values...)
	if err != nil {
		panic(err)
	}
	return r
}

// Record is a Message instance produced by a Schema. It is immutable once
// constructed: there is no setter, matching spec.md §4.1's "no mutation
// after construction".
type Record struct {
	schema *Schema
	values []any
}

func (r *Record) TypeName() string { return r.schema.typeName }

func (r *Record) Values() []any { return append([]any(nil), r.values...) }

// Get returns the value bound to a declared attribute name.
func (r *Record) Get(field string) (any, bool) {
	for i, name := range r.schema.fieldNames {
		if name == field {
			return r.values[i], true
		}
	}
	return nil, false
}

// AttributeMap returns the structured attribute-name -> value map spec.md
// §4.1 calls for.
func (r *Record) AttributeMap() map[string]any {
	m := make(map[string]any, len(r.schema.fieldNames))
	for i, name := range r.schema.fieldNames {
		m[name] = r.values[i]
	}
	return m
}

// Header renders the declared attribute names, tab-separated by default,
// mirroring EventMessageInterface.header() in original_source.
func (r *Record) Header(separator string) string {
	if separator == "" {
		separator = "\t"
	}
	return strings.Join(r.schema.fieldNames, separator)
}

// Render renders "name:value" pairs, tab-separated, mirroring
// EventMessageInterface.values(annotated=True).
func (r *Record) Render(separator string) string {
	if separator == "" {
		separator = "\t"
	}
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = fmt.Sprintf("%s:%v", r.schema.fieldNames[i], v)
	}
	return strings.Join(parts, separator)
}

func (r *Record) String() string {
	return fmt.Sprintf("%s(%v)", r.schema.typeName, r.AttributeMap())
}
