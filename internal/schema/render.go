package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Render produces SDL from the Schema. Built-in scalars, built-in
// directives and introspection types are omitted; the remaining types and
// directives are emitted sorted by name.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatSchemaDocument(toDocument(s))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatValue renders v as a GraphQL literal of the referenced type.
func FormatValue(s *Schema, ref *TypeRef, v any) string {
	return toValue(s, ref, v).String()
}

func toDocument(s *Schema) *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}

	// A schema block is only needed when root names differ from the defaults.
	if !(s.QueryType == "" || s.QueryType == "Query") ||
		!(s.MutationType == "" || s.MutationType == "Mutation") ||
		!(s.SubscriptionType == "" || s.SubscriptionType == "Subscription") {
		def := &ast.SchemaDefinition{Description: s.Description}
		for _, root := range []struct {
			op   ast.Operation
			name string
		}{
			{ast.Query, s.QueryType},
			{ast.Mutation, s.MutationType},
			{ast.Subscription, s.SubscriptionType},
		} {
			if root.name != "" {
				def.OperationTypes = append(def.OperationTypes, &ast.OperationTypeDefinition{Operation: root.op, Type: root.name})
			}
		}
		doc.Schema = ast.SchemaDefinitionList{def}
	}

	names := make([]string, 0, len(s.Directives))
	for name, d := range s.Directives {
		if !isBuiltinDirective(d) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Directives = append(doc.Directives, toDirectiveDefinition(s, s.Directives[name]))
	}

	names = names[:0]
	for name, t := range s.Types {
		if IsBuiltinType(t) || strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Definitions = append(doc.Definitions, toDefinition(s, s.Types[name]))
	}
	return doc
}

func toDefinition(s *Schema, t *Type) *ast.Definition {
	def := &ast.Definition{Description: t.Description, Name: t.Name}
	switch t.Kind {
	case TypeKindScalar:
		def.Kind = ast.Scalar
		if t.SpecifiedByURL != nil {
			def.Directives = ast.DirectiveList{directive("specifiedBy", "url", *t.SpecifiedByURL)}
		}
	case TypeKindObject, TypeKindInterface:
		def.Kind = ast.Object
		if t.Kind == TypeKindInterface {
			def.Kind = ast.Interface
		}
		def.Interfaces = t.Interfaces
		for _, f := range t.Fields {
			fd := &ast.FieldDefinition{
				Description: f.Description,
				Name:        f.Name,
				Type:        toType(f.Type),
				Directives:  deprecated(f.IsDeprecated, f.DeprecationReason),
			}
			for _, a := range f.Arguments {
				fd.Arguments = append(fd.Arguments, toArgumentDefinition(s, a))
			}
			def.Fields = append(def.Fields, fd)
		}
	case TypeKindUnion:
		def.Kind = ast.Union
		def.Types = t.PossibleTypes
	case TypeKindEnum:
		def.Kind = ast.Enum
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Description: v.Description,
				Name:        v.Name,
				Directives:  deprecated(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case TypeKindInputObject:
		def.Kind = ast.InputObject
		if t.OneOf {
			def.Directives = ast.DirectiveList{{Name: "oneOf"}}
		}
		for _, in := range t.InputFields {
			fd := &ast.FieldDefinition{
				Description: in.Description,
				Name:        in.Name,
				Type:        toType(in.Type),
				Directives:  deprecated(in.IsDeprecated, in.DeprecationReason),
			}
			if in.DefaultValue != nil {
				fd.DefaultValue = toValue(s, in.Type, in.DefaultValue)
			}
			def.Fields = append(def.Fields, fd)
		}
	}
	return def
}

func toArgumentDefinition(s *Schema, a *InputValue) *ast.ArgumentDefinition {
	arg := &ast.ArgumentDefinition{
		Description: a.Description,
		Name:        a.Name,
		Type:        toType(a.Type),
		Directives:  deprecated(a.IsDeprecated, a.DeprecationReason),
	}
	if a.DefaultValue != nil {
		arg.DefaultValue = toValue(s, a.Type, a.DefaultValue)
	}
	return arg
}

func toDirectiveDefinition(s *Schema, d *Directive) *ast.DirectiveDefinition {
	def := &ast.DirectiveDefinition{
		Description:  d.Description,
		Name:         d.Name,
		IsRepeatable: d.IsRepeatable,
		// The formatter consults the source to skip built-ins.
		Position: &ast.Position{Src: &ast.Source{}},
	}
	for _, a := range d.Arguments {
		def.Arguments = append(def.Arguments, toArgumentDefinition(s, a))
	}
	for _, loc := range d.Locations {
		def.Locations = append(def.Locations, ast.DirectiveLocation(loc))
	}
	return def
}

func directive(name, arg, value string) *ast.Directive {
	return &ast.Directive{
		Name:      name,
		Arguments: ast.ArgumentList{{Name: arg, Value: &ast.Value{Kind: ast.StringValue, Raw: value}}},
	}
}

func deprecated(isDeprecated bool, reason string) ast.DirectiveList {
	if !isDeprecated {
		return nil
	}
	if reason == "" {
		return ast.DirectiveList{{Name: "deprecated"}}
	}
	return ast.DirectiveList{directive("deprecated", "reason", reason)}
}

func toType(ref *TypeRef) *ast.Type {
	if ref == nil {
		return nil
	}
	switch ref.Kind {
	case TypeRefKindNonNull:
		inner := *toType(ref.OfType)
		inner.NonNull = true
		return &inner
	case TypeRefKindList:
		return &ast.Type{Elem: toType(ref.OfType)}
	default:
		return &ast.Type{NamedType: ref.Named}
	}
}

func renderTypeRef(ref *TypeRef) string {
	if ref == nil || (ref.Kind != TypeRefKindNamed && ref.OfType == nil) {
		return ""
	}
	return toType(ref).String()
}

// toValue converts an internal default value into a literal of type ref.
// Enum values are written as bare names.
func toValue(s *Schema, ref *TypeRef, value any) *ast.Value {
	if value == nil {
		return &ast.Value{Kind: ast.NullValue, Raw: "null"}
	}
	if ref != nil && ref.Kind == TypeRefKindNonNull {
		return toValue(s, ref.OfType, value)
	}

	switch v := value.(type) {
	case []any:
		var elem *TypeRef
		if ref != nil && ref.Kind == TypeRefKindList {
			elem = ref.OfType
		}
		list := &ast.Value{Kind: ast.ListValue}
		for _, item := range v {
			list.Children = append(list.Children, &ast.ChildValue{Value: toValue(s, elem, item)})
		}
		return list
	case map[string]any:
		var input *Type
		if ref != nil {
			input = s.GetType(ref.GetNamedType())
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &ast.Value{Kind: ast.ObjectValue}
		for _, k := range keys {
			var fieldType *TypeRef
			if input != nil {
				if f := input.GetInputField(k); f != nil {
					fieldType = f.Type
				}
			}
			obj.Children = append(obj.Children, &ast.ChildValue{Name: k, Value: toValue(s, fieldType, v[k])})
		}
		return obj
	case string:
		if ref != nil {
			if named := s.GetType(ref.GetNamedType()); named != nil && named.Kind == TypeKindEnum {
				return &ast.Value{Kind: ast.EnumValue, Raw: v}
			}
		}
		return &ast.Value{Kind: ast.StringValue, Raw: v}
	case bool:
		return &ast.Value{Kind: ast.BooleanValue, Raw: strconv.FormatBool(v)}
	case float32:
		return &ast.Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(float64(v), 'g', -1, 32)}
	case float64:
		return &ast.Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(v, 'g', -1, 64)}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(rv.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatUint(rv.Uint(), 10)}
	}
	// Enum internal values and other opaque defaults.
	return &ast.Value{Kind: ast.EnumValue, Raw: fmt.Sprint(value)}
}
