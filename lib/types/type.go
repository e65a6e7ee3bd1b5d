package types

import (
	"reflect"
	"strings"
	"sync/atomic"
)

// Kind classifies how values of a type are represented
type Kind uint8

const (
	// KindValue types are stored inline; their representations are never
	// interchangeable with another type's, even under an assignability relation
	KindValue Kind = iota
	// KindReference types are handled through a reference and may be substituted
	// along their supertype hierarchy
	KindReference
	// KindParam marks an unbound generic parameter of an open definition
	KindParam
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindReference:
		return "reference"
	case KindParam:
		return "param"
	default:
		return "unknown"
	}
}

// serials hands out a unique number per created type, used for interning keys
var serials atomic.Uint64

// Type is the runtime handle of a serializable type. Handles are immutable after
// creation and are compared by pointer identity.
type Type struct {
	serial     uint64
	name       string
	kind       Kind
	goType     reflect.Type
	supertypes []*Type
	underlying *Type

	// generic definition
	params   []*Type
	goTypeOf func(args []reflect.Type) reflect.Type

	// instantiation
	definition *Type
	args       []*Type
}

// Option configures a type during creation
type Option func(t *Type)

// WithGoType sets the Go representation of the type
func WithGoType(goType reflect.Type) Option {
	return func(t *Type) {
		t.goType = goType
	}
}

// WithSupertypes declares reference supertypes (base classes or interfaces) of the type
func WithSupertypes(supertypes ...*Type) Option {
	return func(t *Type) {
		t.supertypes = append(t.supertypes, supertypes...)
	}
}

// WithUnderlying declares the value type whose representation the type shares.
// It is ignored for reference types.
func WithUnderlying(underlying *Type) Option {
	return func(t *Type) {
		t.underlying = underlying
	}
}

// WithGoTypeFunc derives the Go representation of closed instantiations of a
// generic definition from the Go types of its arguments. The function is only
// called when every argument has a Go representation.
func WithGoTypeFunc(fn func(args []reflect.Type) reflect.Type) Option {
	return func(t *Type) {
		t.goTypeOf = fn
	}
}

// New creates a plain (non generic) type
func New(name string, kind Kind, opts ...Option) *Type {
	t := &Type{
		serial: serials.Add(1),
		name:   name,
		kind:   kind,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.kind != KindValue {
		t.underlying = nil
	}
	return t
}

// NewParam creates an unbound generic parameter
func NewParam(name string) *Type {
	return &Type{
		serial: serials.Add(1),
		name:   name,
		kind:   KindParam,
	}
}

// NewGeneric creates an open generic definition with the given parameter names
func NewGeneric(name string, kind Kind, params []string, opts ...Option) *Type {
	t := New(name, kind, opts...)
	t.params = make([]*Type, len(params))
	for i, p := range params {
		t.params[i] = NewParam(p)
	}
	return t
}

// Instantiate builds a new instantiation of the open definition def. It performs
// no interning; callers that need identity-stable handles go through the
// registry (see registry.Registry.MakeGeneric).
func Instantiate(def *Type, args []*Type) *Type {
	t := &Type{
		serial:     serials.Add(1),
		name:       def.name,
		kind:       def.kind,
		supertypes: def.supertypes,
		definition: def,
		args:       append([]*Type(nil), args...),
	}

	if def.goTypeOf != nil {
		goArgs := make([]reflect.Type, len(args))
		for i, a := range args {
			if a.goType == nil {
				return t
			}
			goArgs[i] = a.goType
		}
		t.goType = def.goTypeOf(goArgs)
	}
	return t
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Serial returns the process unique number of the handle
func (t *Type) Serial() uint64 { return t.serial }

// Name returns the name of the type (the definition name for instantiations)
func (t *Type) Name() string { return t.name }

// Kind returns the representation kind of the type
func (t *Type) Kind() Kind { return t.kind }

// IsValueType reports whether values of t are stored inline
func (t *Type) IsValueType() bool { return t.kind == KindValue }

// GoType returns the Go representation or nil if none was declared
func (t *Type) GoType() reflect.Type { return t.goType }

// Supertypes returns the directly declared supertypes
func (t *Type) Supertypes() []*Type { return t.supertypes }

// Underlying returns the value type whose representation t shares. For
// reference types and value types without a declared underlying type this is t
// itself.
func (t *Type) Underlying() *Type {
	u := t
	for u.underlying != nil && u.underlying != u {
		u = u.underlying
	}
	return u
}

// Params returns the parameters of an open generic definition
func (t *Type) Params() []*Type { return t.params }

// Definition returns the open definition of an instantiation, or nil
func (t *Type) Definition() *Type { return t.definition }

// Args returns the type arguments of an instantiation
func (t *Type) Args() []*Type { return t.args }

// IsGenericDefinition reports whether t is an open generic definition
func (t *Type) IsGenericDefinition() bool { return t.definition == nil && len(t.params) > 0 }

// IsGeneric reports whether t is an instantiation of a generic definition
func (t *Type) IsGeneric() bool { return t.definition != nil }

// IsParam reports whether t is an unbound generic parameter
func (t *Type) IsParam() bool { return t.kind == KindParam }

// ContainsParams reports whether t still has unbound generic parameters
func (t *Type) ContainsParams() bool {
	if t.IsParam() || t.IsGenericDefinition() {
		return true
	}
	for _, a := range t.args {
		if a.ContainsParams() {
			return true
		}
	}
	return false
}

// IsAssignableFrom reports whether a value of type other may be used where t
// is expected, following declared supertypes transitively
func (t *Type) IsAssignableFrom(other *Type) bool {
	if other == nil {
		return false
	}
	if t == other {
		return true
	}
	for _, s := range other.supertypes {
		if t.IsAssignableFrom(s) {
			return true
		}
	}
	return false
}

// String returns a readable (not canonical) form of the type, e.g. List[List[Int]]
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if len(t.args) == 0 {
		return t.name
	}
	var sb strings.Builder
	sb.WriteString(t.name)
	sb.WriteByte('[')
	for i, a := range t.args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
