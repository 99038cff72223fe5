package schema

import (
	"context"

	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/pending"
)

// ResolveInfo is the per-field snapshot handed to resolvers. It is built once
// per field execution and must not be modified.
type ResolveInfo struct {
	FieldName      string
	FieldNodes     []*language.Field
	ReturnType     *TypeRef
	ParentType     *Type
	Path           language.Path
	Schema         *Schema
	Fragments      map[string]*language.FragmentDefinition
	RootValue      any
	Operation      *language.OperationDefinition
	VariableValues map[string]any
}

// ResolveParams carries the inputs of a single field resolution.
type ResolveParams struct {
	Source any
	Args   map[string]any
	Info   ResolveInfo
}

// FieldResolveFn produces the raw value of a field. To resolve
// asynchronously, return a *pending.Value[any] as the value.
type FieldResolveFn func(ctx context.Context, p ResolveParams) (any, error)

// IsTypeOfFn reports whether value belongs to the object type it is attached to.
type IsTypeOfFn func(ctx context.Context, value any, info ResolveInfo) *pending.Value[bool]

// ResolveTypeFn picks the runtime object type of value for the abstract type.
// The result may be a type name, a *Type or nil when undetermined.
type ResolveTypeFn func(ctx context.Context, value any, info ResolveInfo, abstract *Type) *pending.Value[any]

// SerializeFn converts an internal leaf value to its response form.
type SerializeFn func(value any) (any, error)

// Accessor is implemented by source values that expose fields by name to the
// default field resolver.
type Accessor interface {
	FieldValue(name string) (any, bool)
}

// SerializeValue serializes value as t's wire form. Enums without their own
// serializer map values to names. Scalars without one pass value through.
func (t *Type) SerializeValue(value any) (any, error) {
	if t.Serialize != nil {
		return t.Serialize(value)
	}
	if t.Kind == TypeKindEnum {
		return serializeEnum(t, value), nil
	}
	return value, nil
}
