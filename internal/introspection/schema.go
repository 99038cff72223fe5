package introspection

import (
	"context"
	"fmt"

	schema "github.com/hanpama/gqlexec/internal/schema"
)

// Extend returns a copy of original with the introspection types registered.
// User types are shared with original, so type identity is unchanged.
func Extend(original *schema.Schema) *schema.Schema {
	extended := original.Clone()
	for _, t := range introspectionTypes {
		extended.AddType(t)
	}
	return extended
}

var typeNames = []string{
	"__Schema",
	"__Type",
	"__Field",
	"__InputValue",
	"__EnumValue",
	"__Directive",
	"__TypeKind",
	"__DirectiveLocation",
}

// introspectionTypes are taken from the GraphQL prelude. Object types are
// served by resolveField.
var introspectionTypes = func() []*schema.Type {
	out := make([]*schema.Type, 0, len(typeNames))
	for _, name := range typeNames {
		t, err := schema.BuildPreludeType(name)
		if err != nil {
			panic(fmt.Sprintf("introspection: %v", err))
		}
		if t.Kind == schema.TypeKindObject {
			t.SetResolveField(resolveField)
		}
		out = append(out, t)
	}
	return out
}()

// SchemaMetaField is the __schema field available on the query root.
var SchemaMetaField = schema.NewField(
	"__schema",
	"Access the current type schema of this server.",
	schema.NonNullType(schema.NamedType("__Schema")),
).SetResolve(func(_ context.Context, p schema.ResolveParams) (any, error) {
	return p.Info.Schema, nil
})

// TypeMetaField is the __type(name:) field available on the query root.
var TypeMetaField = schema.NewField(
	"__type",
	"Request the type information of a single type.",
	schema.NamedType("__Type"),
).AddArgument(
	schema.NewInputValue("name", "The name of the type to look up.", schema.NonNullType(schema.NamedType("String"))),
).SetResolve(func(_ context.Context, p schema.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	// A nil *schema.Type must not leak into the result as a typed nil.
	if t := p.Info.Schema.GetType(name); t != nil {
		return t, nil
	}
	return nil, nil
})

// TypeNameMetaField is the __typename field available on every object type.
var TypeNameMetaField = schema.NewField(
	"__typename",
	"The name of the current Object type at runtime.",
	schema.NonNullType(schema.NamedType("String")),
).SetResolve(func(_ context.Context, p schema.ResolveParams) (any, error) {
	return p.Info.ParentType.Name, nil
})
