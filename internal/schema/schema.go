package schema

import (
	"sort"

	"github.com/hanpama/gqlexec/internal/language"
)

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	// AST is the validated gqlparser schema the model was built from, if any.
	// It is used to validate incoming documents.
	AST *language.Schema `json:"-"`

	typeOrder []string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.GetType(s.QueryType) }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.GetType(s.MutationType) }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.GetType(s.SubscriptionType) }

// GetType returns the type registered under name, or nil.
func (s *Schema) GetType(name string) *Type {
	if s == nil || name == "" {
		return nil
	}
	return s.Types[name]
}

// TypeNames returns registered type names in registration order. Types put
// into the map directly come last, sorted by name.
func (s *Schema) TypeNames() []string {
	out := make([]string, 0, len(s.Types))
	seen := make(map[string]bool, len(s.Types))
	for _, name := range s.typeOrder {
		if _, ok := s.Types[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var rest []string
	for name := range s.Types {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// PossibleTypes returns the object types an abstract type may resolve to, in
// declaration order. For a union these are its members. For an interface
// these are its declared possible types or, when none were declared, every
// registered object implementing it.
func (s *Schema) PossibleTypes(abstract *Type) []*Type {
	if abstract == nil {
		return nil
	}
	switch abstract.Kind {
	case TypeKindUnion, TypeKindInterface:
	default:
		return nil
	}
	if len(abstract.PossibleTypes) > 0 || abstract.Kind == TypeKindUnion {
		out := make([]*Type, 0, len(abstract.PossibleTypes))
		for _, name := range abstract.PossibleTypes {
			if t := s.GetType(name); t != nil {
				out = append(out, t)
			}
		}
		return out
	}
	var out []*Type
	for _, name := range s.TypeNames() {
		t := s.Types[name]
		if t.Kind == TypeKindObject && t.Implements(abstract.Name) {
			out = append(out, t)
		}
	}
	return out
}

// IsPossibleType reports whether obj is one of abstract's possible types.
// Membership is by name; identity is the caller's concern.
func (s *Schema) IsPossibleType(abstract, obj *Type) bool {
	if obj == nil {
		return false
	}
	for _, t := range s.PossibleTypes(abstract) {
		if t.Name == obj.Name {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of s with its own type and directive maps.
// Type values are shared, so registry identity is preserved.
func (s *Schema) Clone() *Schema {
	c := *s
	c.Types = make(map[string]*Type, len(s.Types))
	for name, t := range s.Types {
		c.Types[name] = t
	}
	c.Directives = make(map[string]*Directive, len(s.Directives))
	for name, d := range s.Directives {
		c.Directives[name] = d
	}
	c.typeOrder = append([]string(nil), s.typeOrder...)
	return &c
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool

	// ResolveField resolves fields of this object type that carry no resolver
	// of their own.
	ResolveField FieldResolveFn `json:"-"`
	// IsTypeOf reports whether a value belongs to this object type.
	IsTypeOf IsTypeOfFn `json:"-"`
	// ResolveType picks the runtime object type for an interface or union.
	ResolveType ResolveTypeFn `json:"-"`
	// Serialize converts an internal value into its wire form for a scalar
	// or enum. A nil result marks the value as unrepresentable.
	Serialize SerializeFn `json:"-"`
}

// GetField returns the field definition named name, or nil.
func (t *Type) GetField(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// GetOrderedFields returns fields in declaration order.
func (t *Type) GetOrderedFields() []*Field { return t.Fields }

// GetOrderedInputFields returns input fields in declaration order.
func (t *Type) GetOrderedInputFields() []*InputValue { return t.InputFields }

// GetInputField returns the input field named name, or nil.
func (t *Type) GetInputField(name string) *InputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// GetEnumValue returns the enum value named name, or nil.
func (t *Type) GetEnumValue(name string) *EnumValue {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Implements reports whether t declares the named interface.
func (t *Type) Implements(iface string) bool {
	for _, name := range t.Interfaces {
		if name == iface {
			return true
		}
	}
	return false
}

func (t *Type) IsLeaf() bool { return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum }

func (t *Type) IsAbstract() bool { return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion }

func (t *Type) IsComposite() bool { return t.Kind == TypeKindObject || t.IsAbstract() }

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string

	// Resolve produces the field's raw value. Nil falls back to the parent
	// type's ResolveField and then to the executor's resolver.
	Resolve FieldResolveFn `json:"-"`
}

// GetOrderedArguments returns arguments in declaration order.
func (f *Field) GetOrderedArguments() []*InputValue { return f.Arguments }

// GetArgument returns the argument named name, or nil.
func (f *Field) GetArgument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]".
func (t *TypeRef) String() string { return renderTypeRef(t) }

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string

	// Value is the internal representation. When nil the name is used.
	Value any `json:"-"`
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
