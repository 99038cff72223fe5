package introspection

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	schema "github.com/hanpama/gqlexec/internal/schema"
)

// resolveField serves every field of the introspection object types. The
// source is one of the schema model values; named type references are
// replaced by the *schema.Type they name.
func resolveField(_ context.Context, p schema.ResolveParams) (any, error) {
	r := introspector{sch: p.Info.Schema, includeDeprecated: includeDeprecated(p.Args)}
	var (
		v     any
		known bool
	)
	switch src := p.Source.(type) {
	case *schema.Schema:
		v, known = r.schemaField(src, p.Info.FieldName)
	case *schema.Type:
		v, known = r.typeField(src, p.Info.FieldName)
	case *schema.TypeRef:
		v, known = r.wrapperField(src, p.Info.FieldName)
	case *schema.Field:
		v, known = r.fieldField(src, p.Info.FieldName)
	case *schema.InputValue:
		v, known = r.inputValueField(src, p.Info.FieldName)
	case *schema.EnumValue:
		v, known = enumValueField(src, p.Info.FieldName)
	case *schema.Directive:
		v, known = r.directiveField(src, p.Info.FieldName)
	default:
		return nil, fmt.Errorf("introspection: unexpected source %T for %s.%s", p.Source, p.Info.ParentType.Name, p.Info.FieldName)
	}
	if !known {
		return nil, fmt.Errorf("introspection: unknown field %s.%s", p.Info.ParentType.Name, p.Info.FieldName)
	}
	return v, nil
}

type introspector struct {
	sch               *schema.Schema
	includeDeprecated bool
}

func includeDeprecated(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}

// visible keeps items in declaration order, dropping deprecated ones unless
// they were asked for. The result is never nil so empty lists serialize as [].
func visible[T any](items []T, deprecated func(T) bool, withDeprecated bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if deprecated(it) && !withDeprecated {
			continue
		}
		out = append(out, it)
	}
	return out
}

// byName sorts values that have no declaration order of their own.
func byName[T any](items []T, name func(T) string) []T {
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}
	slices.SortFunc(out, func(a, b T) int { return strings.Compare(name(a), name(b)) })
	return out
}

func typeName(t *schema.Type) string { return t.Name }
func fieldDeprecated(f *schema.Field) bool { return f.IsDeprecated }
func inputDeprecated(a *schema.InputValue) bool { return a.IsDeprecated }
func enumDeprecated(ev *schema.EnumValue) bool { return ev.IsDeprecated }
func directiveName(d *schema.Directive) string { return d.Name }

// ref resolves a type reference to the value introspection exposes for it.
func (r introspector) ref(tr *schema.TypeRef) any {
	switch {
	case tr == nil:
		return nil
	case tr.Kind != schema.TypeRefKindNamed:
		return tr
	}
	if t := r.sch.GetType(tr.Named); t != nil {
		return t
	}
	return nil
}

func (r introspector) namedTypes(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, n := range names {
		if t := r.sch.GetType(n); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func reason(deprecated bool, why string) any {
	if !deprecated {
		return nil
	}
	return why
}

func (r introspector) schemaField(s *schema.Schema, name string) (any, bool) {
	switch name {
	case "description":
		return nullable(s.Description), true
	case "types":
		return byName(slices.Collect(maps.Values(s.Types)), typeName), true
	case "queryType":
		return s.GetQueryType(), true
	case "mutationType":
		return s.GetMutationType(), true
	case "subscriptionType":
		return s.GetSubscriptionType(), true
	case "directives":
		return byName(slices.Collect(maps.Values(s.Directives)), directiveName), true
	}
	return nil, false
}

func (r introspector) typeField(t *schema.Type, name string) (any, bool) {
	composite := t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface
	switch name {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return nullable(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "fields":
		if !composite {
			return nil, true
		}
		return visible(t.GetOrderedFields(), fieldDeprecated, r.includeDeprecated), true
	case "interfaces":
		if !composite {
			return nil, true
		}
		return r.namedTypes(t.Interfaces), true
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, true
		}
		return byName(r.sch.PossibleTypes(t), typeName), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		return visible(t.EnumValues, enumDeprecated, r.includeDeprecated), true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return visible(t.GetOrderedInputFields(), inputDeprecated, r.includeDeprecated), true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		// Named types never wrap another type.
		return nil, true
	}
	return nil, false
}

// wrapperField serves __Type for LIST and NON_NULL references.
func (r introspector) wrapperField(tr *schema.TypeRef, name string) (any, bool) {
	switch name {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return r.ref(tr.OfType), true
	}
	if _, ok := r.typeField(&schema.Type{}, name); ok {
		return nil, true
	}
	return nil, false
}

func (r introspector) fieldField(f *schema.Field, name string) (any, bool) {
	switch name {
	case "name":
		return f.Name, true
	case "description":
		return nullable(f.Description), true
	case "args":
		return visible(f.GetOrderedArguments(), inputDeprecated, r.includeDeprecated), true
	case "type":
		return r.ref(f.Type), true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return reason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func (r introspector) inputValueField(a *schema.InputValue, name string) (any, bool) {
	switch name {
	case "name":
		return a.Name, true
	case "description":
		return nullable(a.Description), true
	case "type":
		return r.ref(a.Type), true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return schema.FormatValue(r.sch, a.Type, a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return reason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func enumValueField(ev *schema.EnumValue, name string) (any, bool) {
	switch name {
	case "name":
		return ev.Name, true
	case "description":
		return nullable(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return reason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func (r introspector) directiveField(d *schema.Directive, name string) (any, bool) {
	switch name {
	case "name":
		return d.Name, true
	case "description":
		return nullable(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := make([]string, 0, len(d.Locations))
		for _, l := range d.Locations {
			locs = append(locs, string(l))
		}
		return locs, true
	case "args":
		return visible(d.Arguments, inputDeprecated, r.includeDeprecated), true
	}
	return nil, false
}
