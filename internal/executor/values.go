package executor

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	language "github.com/hanpama/gqlexec/internal/language"
	schema "github.com/hanpama/gqlexec/internal/schema"
)

// ValuesResolver coerces operation variables, field arguments and directive
// arguments against the schema.
type ValuesResolver struct {
	schema *schema.Schema
}

func NewValuesResolver(sch *schema.Schema) *ValuesResolver {
	return &ValuesResolver{schema: sch}
}

// CoerceVariableValues coerces raw variable inputs according to the
// operation's variable definitions.
func (r *ValuesResolver) CoerceVariableValues(
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				dv, err := varDef.DefaultValue.Value(nil)
				if err != nil {
					return nil, fmt.Errorf("variable $%s has an invalid default value: %v", name, err)
				}
				val = dv
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := r.coerceValue(val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// CoerceArguments produces the argument map for a field from its AST node.
func (r *ValuesResolver) CoerceArguments(
	fieldDef *schema.Field,
	fieldNode *language.Field,
	variableValues map[string]any,
) (map[string]any, error) {
	return r.coerceArgumentList(fieldDef.Arguments, fieldNode.Arguments, variableValues)
}

// DirectiveValues coerces the arguments of the directive named def.Name in
// directives. It reports false when the directive is absent.
func (r *ValuesResolver) DirectiveValues(
	def *schema.Directive,
	directives language.DirectiveList,
	variableValues map[string]any,
) (map[string]any, bool, error) {
	d := directives.ForName(def.Name)
	if d == nil {
		return nil, false, nil
	}
	args, err := r.coerceArgumentList(def.Arguments, d.Arguments, variableValues)
	return args, true, err
}

func (r *ValuesResolver) coerceArgumentList(
	defs []*schema.InputValue,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(defs))
	for _, argDef := range defs {
		name := argDef.Name
		arg := arguments.ForName(name)
		provided := arg != nil
		if provided && arg.Value.Kind == language.Variable {
			_, provided = variableValues[arg.Value.Raw]
		}
		if !provided {
			if argDef.DefaultValue != nil {
				coerced[name] = r.coerceDefault(argDef)
			} else if schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("argument %q of required type %s was not provided", name, argDef.Type)
			}
			continue
		}
		if arg.Value.Kind == language.Variable {
			// Variable values were coerced against their own definition.
			coerced[name] = variableValues[arg.Value.Raw]
			if coerced[name] == nil && schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("argument %q of non-null type %s must not be null", name, argDef.Type)
			}
			continue
		}
		val, err := arg.Value.Value(variableValues)
		if err != nil {
			return nil, fmt.Errorf("argument %q has invalid value: %v", name, err)
		}
		cv, err := r.coerceValue(val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q has invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceValue coerces a value to the specified GraphQL type
func (r *ValuesResolver) coerceValue(value any, targetType *schema.TypeRef) (any, error) {
	// Handle Non-Null wrapper
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return r.coerceValue(value, schema.Unwrap(targetType))
	}

	// Handle null for nullable types
	if value == nil {
		return nil, nil
	}

	// Handle List wrapper
	if schema.IsList(targetType) {
		return r.coerceListValue(value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	typ := r.schema.GetType(namedType)
	if typ == nil {
		return nil, fmt.Errorf("unknown type %s", namedType)
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(typ, value)
	case schema.TypeKindInputObject:
		return r.coerceInputObject(typ, value)
	case schema.TypeKindScalar:
		// Custom scalars are passed through untouched.
		return value, nil
	}
	return nil, fmt.Errorf("type %s is not an input type", namedType)
}

// coerceListValue coerces a value to a list
func (r *ValuesResolver) coerceListValue(value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		coercedSlice := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			coercedItem, err := r.coerceValue(rv.Index(i).Interface(), innerType)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	// Single value becomes a list of one
	coercedItem, err := r.coerceValue(value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func (r *ValuesResolver) coerceInputObject(typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for input type %s, got %T", typ.Name, value)
	}
	for name := range fields {
		if typ.GetInputField(name) == nil {
			return nil, fmt.Errorf("field '%s' is not defined by type %s", name, typ.Name)
		}
	}
	out := make(map[string]any, len(typ.InputFields))
	for _, def := range typ.InputFields {
		v, present := fields[def.Name]
		if !present {
			if def.DefaultValue != nil {
				out[def.Name] = r.coerceDefault(def)
			} else if schema.IsNonNull(def.Type) {
				return nil, fmt.Errorf("required field '%s' of type %s was not provided", def.Name, typ.Name)
			}
			continue
		}
		cv, err := r.coerceValue(v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", def.Name, err)
		}
		out[def.Name] = cv
	}
	if typ.OneOf {
		set := 0
		for _, v := range out {
			if v != nil {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("exactly one field must be set for oneOf type %s", typ.Name)
		}
	}
	return out, nil
}

// coerceDefault coerces a schema default value. Defaults that do not coerce
// are used as declared.
func (r *ValuesResolver) coerceDefault(def *schema.InputValue) any {
	v, err := r.coerceValue(def.DefaultValue, def.Type)
	if err != nil {
		return def.DefaultValue
	}
	return v
}

func coerceToEnum(typ *schema.Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, typ.Name)
	}
	ev := typ.GetEnumValue(name)
	if ev == nil {
		return nil, fmt.Errorf("value %q does not exist in enum %s", name, typ.Name)
	}
	if ev.Value != nil {
		return ev.Value, nil
	}
	return ev.Name, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		if v > math.MaxInt32 || v < math.MinInt32 {
			break
		}
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			break
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			break
		}
		return int(v), nil
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			break
		}
		return int(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
